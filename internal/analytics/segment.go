package analytics

import (
	"errors"
	"sort"
	"time"

	"github.com/KaramelBytes/ledgerloom/internal/dataset"
	"github.com/KaramelBytes/ledgerloom/internal/ml"
	"github.com/KaramelBytes/ledgerloom/internal/schema"
)

const (
	segmentMinCustomers = 4
	segmentMaxK         = 5
	segmentMinK         = 3
	segmentInits        = 3
	segmentIterations   = 50
)

// SegmentNames label clusters by id, reused cyclically.
var SegmentNames = []string{"High Value", "Regular", "New Customers", "At Risk", "Occasional"}

// Segment summarizes one customer cluster.
type Segment struct {
	ID                int     `json:"segment_id"`
	Name              string  `json:"segment_name"`
	CustomerCount     int     `json:"customer_count"`
	AvgTotalSpent     float64 `json:"avg_total_spent"`
	AvgOrderValue     float64 `json:"avg_order_value"`
	AvgOrderFrequency float64 `json:"avg_order_frequency"`
	AvgRecency        float64 `json:"avg_recency"`
	TotalRevenue      float64 `json:"total_revenue_contribution"`
	Percentage        float64 `json:"percentage_of_customers"`
}

// Segmenter clusters customers on monetary value, frequency, recency and
// mean order value.
type Segmenter struct{}

type customer struct {
	id     string
	total  float64
	orders int
	last   time.Time
	dated  bool
}

type customerFeatures struct {
	customers []customer
	recency   []float64
	X         [][]float64
}

func (s *Segmenter) Kind() string { return KindSegment }

func (s *Segmenter) Methods() Methods {
	return Methods{Trained: "lightweight_kmeans", Cached: "cached_kmeans", Fallback: "skipped"}
}

// identityField picks the column customers are grouped by.
func identityField(ds *dataset.Dataset) string {
	if ds.Has(schema.FieldCustomerEmail) {
		return schema.FieldCustomerEmail
	}
	return schema.FieldCustomerID
}

// DeriveFeatures aggregates per customer. Recency is measured in whole days
// from the latest purchase anywhere in the dataset.
func (s *Segmenter) DeriveFeatures(ds *dataset.Dataset) (*customerFeatures, error) {
	field := identityField(ds)
	idx := map[string]int{}
	var cs []customer
	for i := 0; i < ds.Len(); i++ {
		v := ds.Value(i, field)
		if v.IsNull() {
			continue
		}
		id := v.Text()
		j, ok := idx[id]
		if !ok {
			j = len(cs)
			idx[id] = j
			cs = append(cs, customer{id: id})
		}
		if a, ok := ds.Value(i, schema.FieldTotalAmount).Float(); ok {
			cs[j].total += a
			cs[j].orders++
		}
		if t, ok := ds.Value(i, schema.FieldDate).Date(); ok {
			if !cs[j].dated || t.After(cs[j].last) {
				cs[j].last = t
			}
			cs[j].dated = true
		}
	}
	if len(cs) < segmentMinCustomers {
		return nil, &InsufficientError{Reason: ReasonInsufficientCustomers}
	}
	var latest time.Time
	for _, c := range cs {
		if c.dated && c.last.After(latest) {
			latest = c.last
		}
	}
	cf := &customerFeatures{customers: cs}
	for _, c := range cs {
		rec := 0.0
		if c.dated {
			rec = float64(int(latest.Sub(c.last).Hours() / 24))
		}
		aov := 0.0
		if c.orders > 0 {
			aov = c.total / float64(c.orders)
		}
		cf.recency = append(cf.recency, rec)
		cf.X = append(cf.X, []float64{c.total, float64(c.orders), rec, aov})
	}
	return cf, nil
}

// clusterCount is min(5, max(3, n/10)), never more than n.
func clusterCount(n int) int {
	return min(segmentMaxK, max(segmentMinK, n/10), n)
}

func (s *Segmenter) Train(cf *customerFeatures) (*ml.KMeans, *ml.Scaler, map[string]any, error) {
	scaler, err := ml.FitRobust(cf.X)
	if err != nil {
		return nil, nil, nil, err
	}
	Xs, err := scaler.Transform(cf.X)
	if err != nil {
		return nil, nil, nil, err
	}
	k := clusterCount(len(cf.X))
	model := ml.NewKMeans(k, segmentInits, segmentIterations, modelSeed)
	if err := model.Fit(Xs); err != nil {
		return nil, nil, nil, err
	}
	return model, scaler, map[string]any{"customers": len(cf.X), "clusters": k}, nil
}

// Predict assigns customers to clusters and summarizes each non-empty one,
// largest revenue contribution first.
func (s *Segmenter) Predict(cf *customerFeatures, model *ml.KMeans, scaler *ml.Scaler) ([]Segment, map[string]int, error) {
	if model == nil {
		return nil, nil, errors.New("segment: nil model")
	}
	if err := requireScaler(scaler); err != nil {
		return nil, nil, err
	}
	Xs, err := scaler.Transform(cf.X)
	if err != nil {
		return nil, nil, err
	}
	labels, err := model.Predict(Xs)
	if err != nil {
		return nil, nil, err
	}
	members := map[int][]int{}
	for i, l := range labels {
		members[l] = append(members[l], i)
	}
	n := float64(len(cf.customers))
	out := make([]Segment, 0, len(members))
	for id, rows := range members {
		seg := Segment{ID: id, Name: SegmentNames[id%len(SegmentNames)], CustomerCount: len(rows)}
		for _, i := range rows {
			c := cf.customers[i]
			seg.TotalRevenue += c.total
			seg.AvgOrderValue += cf.X[i][3]
			seg.AvgOrderFrequency += float64(c.orders)
			seg.AvgRecency += cf.recency[i]
		}
		cnt := float64(len(rows))
		seg.AvgTotalSpent = seg.TotalRevenue / cnt
		seg.AvgOrderValue /= cnt
		seg.AvgOrderFrequency /= cnt
		seg.AvgRecency /= cnt
		seg.Percentage = cnt / n * 100
		out = append(out, seg)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].TotalRevenue != out[b].TotalRevenue {
			return out[a].TotalRevenue > out[b].TotalRevenue
		}
		return out[a].ID < out[b].ID
	})
	return out, map[string]int{"customers_segmented": len(cf.customers), "segments_created": len(out)}, nil
}

// Fallback reports no segments.
func (s *Segmenter) Fallback(*dataset.Dataset) []Segment { return []Segment{} }
