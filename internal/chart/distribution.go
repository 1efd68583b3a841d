package chart

import (
	"context"
	"math"

	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
	"github.com/KaramelBytes/vizprep-cli/internal/errs"
	"github.com/KaramelBytes/vizprep-cli/internal/stats"
)

const kdeGridPoints = 200

type histogramGen struct{}

func (histogramGen) Kind() Kind { return KindHistogram }

func (histogramGen) Generate(ctx context.Context, in *Input) (*Spec, string, error) {
	c, vals, err := singleNumeric(in, KindHistogram)
	if err != nil {
		return nil, "", err
	}
	spec := newSpec(KindHistogram, defaultTitle("Distribution of %s", c.Name))
	spec.Encoding[RoleX] = c.Name
	spec.Series = []Series{{Name: c.Name, X: floatsAny(vals)}}
	spec.XAxis = linearAxis(c.Name, vals)
	spec.YAxis = &Axis{Title: "Count", Type: AxisLinear}
	spec.Options["nbins"] = in.Tuning.NBins
	return spec, describeDistribution(c.Name, vals), nil
}

type kdeGen struct{}

func (kdeGen) Kind() Kind { return KindKDE }

func (kdeGen) Generate(ctx context.Context, in *Input) (*Spec, string, error) {
	c, vals, err := singleNumeric(in, KindKDE)
	if err != nil {
		return nil, "", err
	}
	bw := scottBandwidth(vals)
	if bw == 0 || len(vals) < 2 {
		return nil, "", errs.Precondition([]string{c.Name}, "a density estimate needs at least two distinct values")
	}
	lo, hi, _ := stats.DynamicRange(vals)
	xs := make([]any, kdeGridPoints)
	ys := make([]any, kdeGridPoints)
	step := (hi - lo) / float64(kdeGridPoints-1)
	for i := 0; i < kdeGridPoints; i++ {
		if i%50 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, "", err
			}
		}
		x := lo + float64(i)*step
		xs[i] = x
		ys[i] = gaussianKDE(vals, bw, x)
	}
	spec := newSpec(KindKDE, defaultTitle("Density of %s", c.Name))
	spec.Encoding[RoleX] = c.Name
	spec.Series = []Series{{Name: c.Name, X: xs, Y: ys}}
	spec.XAxis = &Axis{Title: c.Name, Type: AxisLinear, Range: &[2]float64{lo, hi}}
	spec.YAxis = &Axis{Title: "Density", Type: AxisLinear}
	spec.Options["bandwidth"] = bw
	return spec, describeDistribution(c.Name, vals), nil
}

type rugGen struct{}

func (rugGen) Kind() Kind { return KindRug }

func (rugGen) Generate(ctx context.Context, in *Input) (*Spec, string, error) {
	c, vals, err := singleNumeric(in, KindRug)
	if err != nil {
		return nil, "", err
	}
	spec := newSpec(KindRug, defaultTitle("Rug plot of %s", c.Name))
	spec.Encoding[RoleX] = c.Name
	spec.Series = []Series{{Name: c.Name, X: floatsAny(vals)}}
	spec.XAxis = linearAxis(c.Name, vals)
	return spec, describeDistribution(c.Name, vals), nil
}

func singleNumeric(in *Input, kind Kind) (*dataset.Column, []float64, error) {
	c, _, err := resolveTyped(in, kind, RoleX, in.Mapping.X, dataset.Numerical)
	if err != nil {
		return nil, nil, err
	}
	vals, err := requireValues(c)
	if err != nil {
		return nil, nil, err
	}
	return c, vals, nil
}

// describeDistribution writes the key statistics and skew commentary.
func describeDistribution(name string, vals []float64) string {
	s, _ := stats.Describe(vals)
	var a analysis
	a.add("Distribution analysis for '%s':", name)
	a.blank()
	a.add("Key Statistics:")
	a.add("- Count: %s", count(s.Count))
	a.add("- Mean: %s", num(s.Mean))
	a.add("- Standard Deviation: %s", num(s.Std))
	a.add("- Minimum: %s", num(s.Min))
	a.add("- 25th Percentile (Q1): %s", num(s.Q1))
	a.add("- Median (50th Percentile): %s", num(s.Median))
	a.add("- 75th Percentile (Q3): %s", num(s.Q3))
	a.add("- Maximum: %s", num(s.Max))
	a.blank()
	switch label := stats.SkewLabel(s.Skew); label {
	case "positively skewed":
		a.add("The distribution is positively skewed (skewed right), meaning the tail extends toward higher values (Skewness: %.2f).", s.Skew)
	case "negatively skewed":
		a.add("The distribution is negatively skewed (skewed left), meaning the tail extends toward lower values (Skewness: %.2f).", s.Skew)
	default:
		a.add("The distribution is roughly symmetrical (Skewness: %.2f).", s.Skew)
	}
	return a.String()
}

// scottBandwidth is 1.06 * sigma * n^(-1/5).
func scottBandwidth(vals []float64) float64 {
	sd := stats.StdDev(vals)
	if math.IsNaN(sd) || sd == 0 {
		return 0
	}
	return 1.06 * sd * math.Pow(float64(len(vals)), -0.2)
}

func gaussianKDE(vals []float64, bw, x float64) float64 {
	var sum float64
	for _, v := range vals {
		z := (x - v) / bw
		sum += math.Exp(-0.5 * z * z)
	}
	return sum / (float64(len(vals)) * bw * math.Sqrt(2*math.Pi))
}
