package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/thetahealth/mirobody-sub003/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
)

func TestConsumerProcessesIngestMessages(t *testing.T) {
	fx := newServiceFixture(true)
	ctx := context.Background()
	fx.objects.objects["bucket/q.pdf"] = []byte("%PDF queued bytes")

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	consumer := NewConsumerService(pubSub, "files.ingest", fx.ingest)
	if err := consumer.Consume(ctx); err != nil {
		t.Fatalf("Consume failed: %v", err)
	}

	publisher := NewPublisherService("files.ingest", pubSub)

	// A malformed payload is acked and must not wedge the loop.
	if err := publisher.Publish(ctx, []byte("not json")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	payload, err := json.Marshal(&dto.IngestFilesRequest{
		SessionId: "sess-c",
		UserId:    "user-c",
		Files:     []dto.InboundFile{{FileName: "q.pdf", FileKey: "bucket/q.pdf"}},
	})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if err := publisher.Publish(ctx, payload); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	ws := fx.workspace.Workspace("sess-c", "user-c")
	assert.Eventually(t, func() bool {
		infos, err := ws.List(ctx, "/uploads/")
		return err == nil && len(infos) == 1 && infos[0].Path == "/uploads/q.pdf"
	}, 2*time.Second, 10*time.Millisecond, "queued batch should land in the workspace")
}
