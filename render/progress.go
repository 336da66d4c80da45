package render

import (
	"fmt"
	"io"

	"github.com/gosuri/uilive"
	"github.com/zeu5/dodge-rl/experiment"
)

// Progress prints a single refreshing line with the current episode
type Progress struct {
	desc     string
	episodes int
	last     int
	writer   *uilive.Writer
}

var _ experiment.Observer = &Progress{}

func NewProgress(desc string, episodes int, out io.Writer) *Progress {
	writer := uilive.New()
	writer.Out = out
	return &Progress{
		desc:     desc,
		episodes: episodes,
		last:     -1,
		writer:   writer,
	}
}

func (p *Progress) Observe(o experiment.Observation) {
	if o.Episode == p.last {
		return
	}
	p.last = o.Episode
	fmt.Fprintf(p.writer, "%s: %d/%d episodes | epsilon %.3f\n", p.desc, o.Episode+1, p.episodes, o.Epsilon)
	p.writer.Flush()
}
