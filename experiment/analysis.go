package experiment

import (
	"fmt"
	"os"
	"path"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/zeu5/dodge-rl/util"
)

// Generic Dataset that contains information after processing the traces
type DataSet interface{}

// Analyzer compresses the information in the traces to a DataSet
type Analyzer interface {
	// episode, trace
	Analyze(int, *Trace)
	// Resulting dataset
	DataSet() DataSet
	// Reset the analyzer
	Reset()
}

// Comparator differentiates between different datasets with associated names
type Comparator func([]string, []DataSet) error

// Returns is the DataSet of a ReturnAnalyzer, one value per episode
type Returns []float64

// ReturnAnalyzer collects the return of every episode
type ReturnAnalyzer struct {
	returns Returns
}

var _ Analyzer = &ReturnAnalyzer{}

func NewReturnAnalyzer() *ReturnAnalyzer {
	return &ReturnAnalyzer{returns: make(Returns, 0)}
}

func (r *ReturnAnalyzer) Analyze(_ int, t *Trace) {
	r.returns = append(r.returns, t.Return())
}

func (r *ReturnAnalyzer) DataSet() DataSet {
	out := make(Returns, len(r.returns))
	copy(out, r.returns)
	return out
}

func (r *ReturnAnalyzer) Reset() {
	r.returns = make(Returns, 0)
}

// MovingAverage over the trailing window, shorter at the start of the series
func MovingAverage(xs []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(xs))
	sum := 0.0
	for i, x := range xs {
		sum += x
		if i >= window {
			sum -= xs[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

func returnsOf(ds DataSet) (Returns, error) {
	r, ok := ds.(Returns)
	if !ok {
		return nil, fmt.Errorf("unexpected dataset type %T", ds)
	}
	return r, nil
}

// PlotReturns draws the returns and their moving average into returns.png under plotPath
func PlotReturns(plotPath string, window int) Comparator {
	return func(names []string, ds []DataSet) error {
		if err := util.EnsureDir(plotPath); err != nil {
			return err
		}
		p := plot.New()
		p.Title.Text = "Episode returns"
		p.X.Label.Text = "Episode"
		p.Y.Label.Text = "Return"
		for i := 0; i < len(names); i++ {
			returns, err := returnsOf(ds[i])
			if err != nil {
				return err
			}
			avg := MovingAverage(returns, window)
			raw := make(plotter.XYs, len(returns))
			smooth := make(plotter.XYs, len(returns))
			for j := range returns {
				raw[j] = plotter.XY{X: float64(j), Y: returns[j]}
				smooth[j] = plotter.XY{X: float64(j), Y: avg[j]}
			}
			line, err := plotter.NewLine(raw)
			if err != nil {
				return fmt.Errorf("plotting %s: %w", names[i], err)
			}
			line.Color = plotutil.Color(2 * i)
			avgLine, err := plotter.NewLine(smooth)
			if err != nil {
				return fmt.Errorf("plotting %s average: %w", names[i], err)
			}
			avgLine.Color = plotutil.Color(2*i + 1)
			avgLine.Width = vg.Points(2)
			p.Add(line, avgLine)
			p.Legend.Add(names[i], line)
			p.Legend.Add(fmt.Sprintf("%s (avg %d)", names[i], window), avgLine)
		}
		return p.Save(10*vg.Inch, 5*vg.Inch, path.Join(plotPath, "returns.png"))
	}
}

// ChartReturns renders an interactive HTML chart of the returns into returns.html under chartPath
func ChartReturns(chartPath string, window int) Comparator {
	return func(names []string, ds []DataSet) error {
		if err := util.EnsureDir(chartPath); err != nil {
			return err
		}
		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{
				Title: "Episode returns",
			}),
		)

		longest := 0
		for i := range ds {
			returns, err := returnsOf(ds[i])
			if err != nil {
				return err
			}
			if len(returns) > longest {
				longest = len(returns)
			}
		}
		var episodes []string
		for i := 0; i < longest; i++ {
			episodes = append(episodes, fmt.Sprintf("%d", i))
		}
		line = line.SetXAxis(episodes)

		for i, name := range names {
			returns, _ := returnsOf(ds[i])
			avg := MovingAverage(returns, window)
			raw := make([]opts.LineData, 0, len(returns))
			smooth := make([]opts.LineData, 0, len(returns))
			for j := range returns {
				raw = append(raw, opts.LineData{Value: returns[j]})
				smooth = append(smooth, opts.LineData{Value: avg[j]})
			}
			line.AddSeries(name, raw)
			line.AddSeries(fmt.Sprintf("%s (avg %d)", name, window), smooth)
		}

		page := components.NewPage()
		page.AddCharts(line)
		f, err := os.Create(path.Join(chartPath, "returns.html"))
		if err != nil {
			return err
		}
		defer f.Close()
		return page.Render(f)
	}
}

// Compare feeds the datasets of the analyzers to every comparator
func Compare(names []string, analyzers []Analyzer, comparators ...Comparator) error {
	ds := make([]DataSet, len(analyzers))
	for i, a := range analyzers {
		ds[i] = a.DataSet()
	}
	for _, c := range comparators {
		if err := c(names, ds); err != nil {
			return err
		}
	}
	return nil
}
