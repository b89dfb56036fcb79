package main

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"docbridge/internal/docstore"
	"docbridge/internal/logger"

	"github.com/brianvoe/gofakeit/v6"
	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/sync/errgroup"
)

var errSeedPlan = errors.New("count, batch and workers must be positive")

var orderStatuses = []string{"open", "held", "shipped", "cancelled"}

type seedPlan struct {
	count   int
	batch   int
	workers int
}

// fakeOrders returns n order documents drawn from f.
func fakeOrders(f *gofakeit.Faker, n int) []bson.M {
	end := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	start := end.AddDate(-1, 0, 0)

	docs := make([]bson.M, n)
	for i := range docs {
		docs[i] = bson.M{
			"customer":  f.Name(),
			"email":     f.Email(),
			"status":    f.RandomString(orderStatuses),
			"items":     f.Number(1, 10),
			"total":     f.Price(5, 500),
			"note":      f.Sentence(6),
			"color":     f.HexColor(),
			"createdAt": f.DateRange(start, end).UTC(),
		}
	}
	return docs
}

// seedOrders inserts plan.count fake orders into key in batches, keeping at
// most plan.workers InsertMany tasks in flight. It returns how many documents
// were inserted before the first failure.
func seedOrders(ctx context.Context, h docstore.Handle, key string, plan seedPlan, f *gofakeit.Faker) (int, error) {
	if plan.count <= 0 || plan.batch <= 0 || plan.workers <= 0 {
		return 0, errSeedPlan
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(plan.workers)

	var inserted atomic.Int64
	for start := 0; start < plan.count; start += plan.batch {
		// documents are generated here; Faker is not safe for concurrent use
		docs := fakeOrders(f, min(plan.batch, plan.count-start))

		g.Go(func() error {
			task, err := docstore.InsertManyAsync(gctx, h, key, docs, nil)
			if err != nil {
				return err
			}
			res, err := task.Await(gctx)
			if err != nil {
				return err
			}
			total := inserted.Add(int64(len(res.InsertedIDs)))
			logger.L().Info("seed batch inserted", "key", key, "task", task.ID(), "done", total, "of", plan.count)
			return nil
		})
	}

	err := g.Wait()
	return int(inserted.Load()), err
}
