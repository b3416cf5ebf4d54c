package searchidx

import (
	"context"
	"fmt"
	"time"

	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// Bootstrap ensures the SupportTicket class exists. Existing classes are left
// untouched; ticket ingestion is owned by the ticketing system, not this
// service.
func Bootstrap(ctx context.Context, baseURL string) error {
	cfg := weaviate.Config{Scheme: "http", Host: baseURL}
	cl, err := weaviate.NewClient(cfg)
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	ticket := &models.Class{
		Class:      className,
		Vectorizer: "none",
		Properties: []*models.Property{
			{Name: "ticketId", DataType: []string{"text"}},
			{Name: "subject", DataType: []string{"text"}},
			{Name: "description", DataType: []string{"text"}},
			{Name: "requester", DataType: []string{"text"}},
			{Name: "assignee", DataType: []string{"text"}},
			{Name: "status", DataType: []string{"text"}},
			{Name: "priority", DataType: []string{"text"}},
			{Name: "createdAt", DataType: []string{"date"}},
		},
	}

	exists, err := cl.Schema().ClassExistenceChecker().WithClassName(className).Do(cctx)
	if err != nil {
		return fmt.Errorf("bootstrap %s: %w", className, err)
	}
	if exists {
		return nil
	}
	if err := cl.Schema().ClassCreator().WithClass(ticket).Do(cctx); err != nil {
		return fmt.Errorf("bootstrap %s: %w", className, err)
	}
	return nil
}
