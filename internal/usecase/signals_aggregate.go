package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"OddsPulse/internal/domain/models"
	domrepo "OddsPulse/internal/domain/repository"
)

// EvaluateUseCase produces the consolidated market evaluation behind the
// /evaluate endpoint by fanning the evaluator's components out concurrently.
type EvaluateUseCase struct {
	eval    *MarketEvaluator
	timeout time.Duration
}

func NewEvaluateUseCase(eval *MarketEvaluator) *EvaluateUseCase {
	return &EvaluateUseCase{eval: eval, timeout: 10 * time.Second}
}

type EvaluateParams struct {
	Sport   string
	EventID string
	Type    models.MarketType
	Book    string
	Horizon int
}

// maxHorizon bounds how far a single request may project.
const maxHorizon = 48

func (uc *EvaluateUseCase) Evaluate(ctx context.Context, p EvaluateParams) (*models.MarketEvaluation, error) {
	if p.EventID == "" {
		return nil, fmt.Errorf("event_id required")
	}
	if !domrepo.IsValidMarketType(p.Type) {
		p.Type = domrepo.DefaultMarketType()
	}
	h := domrepo.ClampHorizon(p.Horizon, 0, maxHorizon)

	market := models.Market{Sport: p.Sport, EventID: p.EventID, Type: p.Type, Book: p.Book}

	// Overall timeout
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	res := &models.MarketEvaluation{
		Market:    market,
		Timestamp: time.Now().UTC(),
		Errors:    map[string]string{},
	}

	type item struct {
		name string
		val  interface{}
		err  error
	}
	ch := make(chan item, 4)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.eval.Indicators(ctx, market)
		ch <- item{"indicators", v, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.eval.Steam(ctx, market)
		ch <- item{"steam", v, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.eval.Forecast(ctx, market, h)
		ch <- item{"forecast", v, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.eval.Recommend(ctx, market, h)
		ch <- item{"recommendation", v, err}
	}()

	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		if it.err != nil {
			res.Errors[it.name] = it.err.Error()
			continue
		}
		switch it.name {
		case "indicators":
			res.Indicators = it.val.(*models.IndicatorSet)
		case "steam":
			v := it.val.(models.SteamFlag)
			res.Steam = &v
		case "forecast":
			res.Forecast = it.val.(*models.Forecast)
		case "recommendation":
			v := it.val.(models.Recommendation)
			res.Recommendation = &v
		}
	}

	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res, nil
}
