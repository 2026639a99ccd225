package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/tunogya/soicau/pkg/analysis"
	"github.com/tunogya/soicau/pkg/data"
	"github.com/tunogya/soicau/pkg/queue/nats"
	"github.com/tunogya/soicau/pkg/store/duckdb"
)

// publisher is the part of the NATS client the handler needs
type publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// handler turns one analysis request into one published result.
// A returned error means the request should be redelivered.
type handler struct {
	engine *analysis.Engine
	tables data.TableProvider
	runs   *duckdb.RunRepo
	index  func(ctx context.Context, res *analysis.Result) error // optional
	pub    publisher
}

func (h *handler) Handle(ctx context.Context, raw []byte) error {
	msg, err := nats.DecodeAnalysisRequest(raw)
	if err != nil {
		// redelivery cannot fix a malformed message
		log.Printf("Dropping undecodable request: %v", err)
		return nil
	}

	table := msg.Table
	if table == nil {
		table, err = h.tables.FetchTable(ctx, msg.TableName)
		if errors.Is(err, data.ErrTableNotFound) {
			return h.publish(ctx, nats.NewErrorMsg(msg.RequestID, msg.TableName, analysis.ErrNoTable))
		}
		if err != nil {
			return fmt.Errorf("failed to load table %s: %w", msg.TableName, err)
		}
	}

	res, err := h.engine.Run(table, msg.ToRequest())
	if err != nil {
		log.Printf("Request %s rejected: %v", msg.RequestID, err)
		return h.publish(ctx, nats.NewErrorMsg(msg.RequestID, table.Name, err))
	}

	if h.runs != nil {
		if err := h.runs.Save(ctx, res); err != nil {
			return fmt.Errorf("failed to store run: %w", err)
		}
	}
	if h.index != nil {
		if err := h.index(ctx, res); err != nil {
			return fmt.Errorf("failed to index run: %w", err)
		}
	}

	log.Printf("Request %s: run %s, %d matches", msg.RequestID, res.RunID, res.TotalMatches())
	return h.publish(ctx, nats.NewResultMsg(msg.RequestID, res))
}

func (h *handler) publish(ctx context.Context, out *nats.AnalysisResultMsg) error {
	payload, err := nats.Encode(out)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return h.pub.Publish(ctx, nats.SubjectAnalysisResult, payload)
}
