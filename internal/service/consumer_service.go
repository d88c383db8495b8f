// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"log"

	"github.com/thetahealth/mirobody-sub003/internal/dto"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub        *gochannel.GoChannel
	topicName     string
	ingestService IIngestService
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	ingestService IIngestService,
) IConsumerService {
	return &consumerService{
		pubSub:        pubSub,
		topicName:     topicName,
		ingestService: ingestService,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.IngestFilesRequest
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Processing ingest batch of %d files for session %s", len(payload.Files), payload.SessionId)

	resp, err := cs.ingestService.UploadFiles(ctx, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to ingest files for session %s: %v", payload.SessionId, err)
		msg.Nack() // Nack for retriable errors
		return
	}

	for _, failure := range resp.Failed {
		log.Printf("[WARN] File %s skipped: %s", failure.FileName, failure.Error)
	}

	log.Printf("[SUCCESS] Ingested %d files for session %s", len(resp.UploadedPaths), payload.SessionId)
	msg.Ack()
}
