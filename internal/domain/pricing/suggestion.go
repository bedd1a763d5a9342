// Package pricing は価格履歴から次の価格候補を出す。
// DBやHTTPには依存しない純粋な計算だけを置く。
package pricing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// 候補を出すのに必要な価格変更履歴の件数
const MinHistoryForSuggestions = 3

var (
	ErrNegativePrice = errors.New("current price must be >= 0")
	ErrNegativeCost  = errors.New("cost price must be >= 0")
)

type Trend string

const (
	TrendNewProduct Trend = "New Product"
	TrendIncreased  Trend = "Price Increased"
	TrendDecreased  Trend = "Price Decreased"
	TrendStable     Trend = "Stable"
)

type MarginStatus string

const (
	StatusProfit    MarginStatus = "profit"
	StatusLoss      MarginStatus = "loss"
	StatusBreakEven MarginStatus = "break-even"
)

// 候補ラベル
const (
	LabelIncrease   = "Increase 5%"
	LabelDecrease   = "Decrease 5%"
	LabelRound      = "Round number"
	LabelHistorical = "Historical average"
)

var (
	stepUp    = decimal.RequireFromString("1.05")
	stepDown  = decimal.RequireFromString("0.95")
	roundUnit = decimal.NewFromInt(5)
	hundred   = decimal.NewFromInt(100)
)

// 価格変更1件分
type Change struct {
	OldPrice   decimal.Decimal `json:"old_price"`
	NewPrice   decimal.Decimal `json:"new_price"`
	ChangeDate time.Time       `json:"change_date"`
}

type Input struct {
	CurrentPrice decimal.Decimal
	// 新しい順
	History []Change
	// nilなら利益計算をしない
	Cost *decimal.Decimal
}

type Suggestion struct {
	Label  string           `json:"label"`
	Price  decimal.Decimal  `json:"price"`
	Profit *decimal.Decimal `json:"profit,omitempty"`
	Margin *decimal.Decimal `json:"margin,omitempty"`
	Status MarginStatus     `json:"status,omitempty"`
}

type Analysis struct {
	Trend                  Trend
	TotalUpdates           int
	CanGenerateSuggestions bool
	Progress               string
	Message                string
	Suggestions            []Suggestion
}

// Analyze は現在価格と履歴から候補一覧を作る。
// 履歴が3件未満なら候補は常に空。
func Analyze(in Input) (Analysis, error) {
	if in.CurrentPrice.IsNegative() {
		return Analysis{}, ErrNegativePrice
	}
	if in.Cost != nil && in.Cost.IsNegative() {
		return Analysis{}, ErrNegativeCost
	}

	count := len(in.History)
	out := Analysis{
		Trend:        ClassifyTrend(in.CurrentPrice, in.History),
		TotalUpdates: count,
		Progress:     fmt.Sprintf("%d/%d", min(count, MinHistoryForSuggestions), MinHistoryForSuggestions),
		Suggestions:  []Suggestion{},
	}

	if count < MinHistoryForSuggestions {
		out.Message = fmt.Sprintf("Not enough price history (%d/%d updates)", count, MinHistoryForSuggestions)
		return out, nil
	}

	out.CanGenerateSuggestions = true
	out.Message = "Suggestions based on your last price updates"

	candidates := []Suggestion{
		{Label: LabelIncrease, Price: in.CurrentPrice.Mul(stepUp).Round(2)},
		{Label: LabelDecrease, Price: in.CurrentPrice.Mul(stepDown).Round(2)},
		{Label: LabelRound, Price: roundNumber(in.CurrentPrice)},
		{Label: LabelHistorical, Price: historicalAverage(in.History)},
	}

	for _, s := range candidates {
		if in.Cost != nil {
			s = withMargin(s, *in.Cost)
		}
		out.Suggestions = append(out.Suggestions, s)
	}
	return out, nil
}

// ClassifyTrend は直近の変更前価格と現在価格を比べる。
func ClassifyTrend(current decimal.Decimal, history []Change) Trend {
	if len(history) == 0 {
		return TrendNewProduct
	}
	switch current.Cmp(history[0].OldPrice) {
	case 1:
		return TrendIncreased
	case -1:
		return TrendDecreased
	default:
		return TrendStable
	}
}

// 5ペソ単位で一番近い値。現在価格と同じなら次の5ペソ単位。
func roundNumber(price decimal.Decimal) decimal.Decimal {
	nearest := price.Div(roundUnit).Round(0).Mul(roundUnit)
	if nearest.Equal(price) || !nearest.IsPositive() {
		return price.Div(roundUnit).Floor().Add(decimal.NewFromInt(1)).Mul(roundUnit)
	}
	return nearest
}

func historicalAverage(history []Change) decimal.Decimal {
	sum := decimal.Zero
	for _, h := range history {
		sum = sum.Add(h.NewPrice)
	}
	return sum.Div(decimal.NewFromInt(int64(len(history)))).Round(2)
}

func withMargin(s Suggestion, cost decimal.Decimal) Suggestion {
	profit := s.Price.Sub(cost).Round(2)
	s.Profit = &profit

	// 原価0のときは率が定義できない
	if cost.IsPositive() {
		margin := profit.Div(cost).Mul(hundred).Round(2)
		s.Margin = &margin
	}

	switch profit.Sign() {
	case 1:
		s.Status = StatusProfit
	case -1:
		s.Status = StatusLoss
	default:
		s.Status = StatusBreakEven
	}
	return s
}
