package learning_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockfantasy/contest-engine/internal/learning"
	"github.com/stockfantasy/contest-engine/internal/marketdata"
	"github.com/stockfantasy/contest-engine/internal/model"
	"github.com/stockfantasy/contest-engine/internal/scoring"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// newTestService wires a learning service against a stub upstream.
func newTestService(t *testing.T, mux *http.ServeMux) *learning.Service {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := marketdata.NewClient(srv.URL, "test-key")
	gateway := marketdata.NewGateway(client, time.Minute, time.Minute, nil)
	return learning.NewService(gateway, nil, nil)
}

func scored(symbol string, final float64, role string) scoring.StockScore {
	return scoring.StockScore{
		Symbol:     symbol,
		Name:       symbol,
		Role:       role,
		Multiplier: d(1),
		FinalScore: d(final),
	}
}

func TestAnalyzePerformance_Summaries(t *testing.T) {
	tests := []struct {
		total float64
		want  string
	}{
		{120, "Excellent"},
		{100, "Excellent"},
		{60, "Good job"},
		{10, "Average"},
		{0, "Average"},
		{-20, "Tough day"},
	}

	for _, tt := range tests {
		result := scoring.Result{TotalScore: d(tt.total)}
		insights := learning.AnalyzePerformance(result)
		if !strings.Contains(insights.Summary, tt.want) {
			t.Errorf("total %v: summary %q, want containing %q", tt.total, insights.Summary, tt.want)
		}
	}
}

func TestAnalyzePerformance_Performers(t *testing.T) {
	best := scored("TCS", 40, scoring.RoleCaptain)
	worst := scored("ZEE", -15, scoring.RoleRegular)
	result := scoring.Result{
		TotalScore:          d(25),
		Stocks:              []scoring.StockScore{best, worst},
		BestPerformer:       &best,
		WorstPerformer:      &worst,
		CaptainContribution: d(40),
	}

	insights := learning.AnalyzePerformance(result)

	var foundStar, foundUnder bool
	for _, f := range insights.KeyFactors {
		if strings.Contains(f.Title, "Star Performer: TCS") {
			foundStar = true
		}
		if strings.Contains(f.Title, "Underperformer: ZEE") {
			foundUnder = true
			if !strings.Contains(f.Detail, "15") {
				t.Errorf("underperformer detail %q should carry the absolute loss", f.Detail)
			}
		}
	}
	if !foundStar || !foundUnder {
		t.Errorf("key factors = %+v, want star and underperformer", insights.KeyFactors)
	}

	// A positive captain contribution credits half of it as the bonus.
	var captainLine string
	for _, line := range insights.WhatWentWell {
		if strings.Contains(line, "captain choice") {
			captainLine = line
		}
	}
	if !strings.Contains(captainLine, "20") {
		t.Errorf("captain line %q, want 20 bonus points", captainLine)
	}
}

func TestAnalyzePerformance_WorstOnlyWhenNegative(t *testing.T) {
	worst := scored("LT", 5, scoring.RoleRegular)
	result := scoring.Result{TotalScore: d(30), WorstPerformer: &worst}

	insights := learning.AnalyzePerformance(result)
	for _, f := range insights.KeyFactors {
		if strings.Contains(f.Title, "Underperformer") {
			t.Errorf("positive worst performer flagged: %+v", f)
		}
	}
}

func TestTipsForNextContest(t *testing.T) {
	starter := learning.TipsForNextContest(nil)
	if len(starter) != 3 {
		t.Fatalf("starter tips = %d, want 3", len(starter))
	}

	history := []model.Entry{
		{Score: d(-20)},
		{Score: d(-10)},
	}
	tips := learning.TipsForNextContest(history)

	var hasDiversify, hasAverage bool
	for _, tip := range tips {
		if strings.Contains(tip.Tip, "diversifying") {
			hasDiversify = true
		}
		if strings.Contains(tip.Tip, "average score is -15") {
			hasAverage = true
		}
	}
	if !hasDiversify {
		t.Error("negative average should suggest diversifying")
	}
	if !hasAverage {
		t.Errorf("tips = %+v, want average score -15 mentioned", tips)
	}
}

func TestMarketInsights(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/trending", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"trendingStocks": [
			{"name":"TCS","sector":"IT"},
			{"name":"INFY","sector":"IT"},
			{"name":"HDFC","industry":"Banking"}
		]}`))
	})
	mux.HandleFunc("/news", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"title":"n1","description":"d1"},
			{"title":"n2","description":"d2"},
			{"title":"n3","description":"d3"},
			{"title":"n4","description":"d4"}
		]`))
	})
	svc := newTestService(t, mux)

	insights := svc.MarketInsights(context.Background())

	if len(insights.TrendingSectors) != 2 {
		t.Fatalf("sectors = %+v, want IT and Banking", insights.TrendingSectors)
	}
	if insights.TrendingSectors[0].Name != "IT" || insights.TrendingSectors[0].Count != 2 {
		t.Errorf("top sector = %+v, want IT ×2", insights.TrendingSectors[0])
	}
	if len(insights.KeyNews) != 3 {
		t.Errorf("news = %d items, want top 3", len(insights.KeyNews))
	}
	if len(insights.LearningModules) != 4 {
		t.Errorf("modules = %d, want 4", len(insights.LearningModules))
	}
}

func TestMarketInsights_UpstreamDownDegrades(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})
	svc := newTestService(t, mux)

	insights := svc.MarketInsights(context.Background())

	if len(insights.TrendingSectors) != 0 || len(insights.KeyNews) != 0 {
		t.Errorf("insights = %+v, want empty market sections", insights)
	}
	if len(insights.LearningModules) != 4 {
		t.Error("static modules must survive upstream failure")
	}
}

func TestStockLearningContext(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/stock", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"marketCap":"75,000 Cr","peRatio":"45","industry":"Information Technology"}`))
	})
	svc := newTestService(t, mux)

	sctx := svc.StockLearningContext(context.Background(), "TCS")

	var largeCap, highPE bool
	for _, m := range sctx.KeyMetricsExplained {
		if m.Metric == "Large Cap Stock" {
			largeCap = true
		}
		if strings.HasPrefix(m.Metric, "P/E Ratio") && strings.Contains(m.Explanation, "high future growth") {
			highPE = true
		}
	}
	if !largeCap || !highPE {
		t.Errorf("metrics = %+v, want large cap and high P/E", sctx.KeyMetricsExplained)
	}

	if len(sctx.RiskFactors) != 1 || !strings.Contains(sctx.RiskFactors[0], "US market") {
		t.Errorf("risk factors = %+v, want IT risk", sctx.RiskFactors)
	}
}

func TestStockLearningContext_UpstreamDown(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})
	svc := newTestService(t, mux)

	sctx := svc.StockLearningContext(context.Background(), "TCS")
	if sctx.StockName != "TCS" {
		t.Errorf("stock name = %q", sctx.StockName)
	}
	if len(sctx.KeyMetricsExplained) != 0 || len(sctx.RiskFactors) != 0 {
		t.Errorf("context = %+v, want empty sections on failure", sctx)
	}
}
