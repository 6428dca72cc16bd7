package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/nmxmxh/atomics/atomics"
)

// widthReport is what the provider offers for one width.
type widthReport struct {
	Width       int      `json:"width"`
	Supported   bool     `json:"supported"`
	Recommended uint64   `json:"recommended_alignment"`
	Minimum     uint64   `json:"minimum_alignment"`
	SizeWithin  uint64   `json:"size_within"`
	ReadWrite   int      `json:"read_write_ops"`
	ReadOnly    int      `json:"read_only_ops"`
	BytesOps    []string `json:"bytes_ops,omitempty"`
	SignedOps   []string `json:"signed_ops,omitempty"`
	UnsignedOps []string `json:"unsigned_ops,omitempty"`
	ReadOnlyOps []string `json:"read_only_ops_list,omitempty"`
	Error       string   `json:"error,omitempty"`
}

type report struct {
	CacheLine int             `json:"cache_line"`
	Widths    []widthReport   `json:"widths"`
	SelfTest  *selfTestResult `json:"self_test,omitempty"`
}

func probeWidth(env *atomics.Env, width int) widthReport {
	r := widthReport{Width: width}
	caps, err := env.Resolve(width)
	if err != nil {
		r.Error = err.Error()
		return r
	}

	r.Recommended = uint64(caps.Alignment.Recommended)
	r.Minimum = uint64(caps.Alignment.Minimum)
	r.SizeWithin = uint64(caps.Alignment.SizeWithin)
	r.ReadWrite = caps.Count(false)
	r.ReadOnly = caps.Count(true)
	r.Supported = caps.Supported(false) || caps.Supported(true)
	if !r.Supported {
		return r
	}

	if caps.Supported(false) {
		r.BytesOps = opNames(caps.Ops(false, false, false))
		r.SignedOps = opNames(caps.Ops(true, true, false))
		r.UnsignedOps = opNames(caps.Ops(true, false, false))
	}
	if caps.Supported(true) {
		r.ReadOnlyOps = opNames(caps.Ops(true, false, true))
	}
	return r
}

func opNames(ops []atomics.OpType) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = op.String()
	}
	return out
}

func writeText(w io.Writer, rep report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "cache line: %d bytes\n\n", rep.CacheLine)
	fmt.Fprintln(tw, "WIDTH\tSUPPORTED\tALIGN\tMIN\tWITHIN\tRW OPS\tRO OPS\tREAD-ONLY SET")
	for _, r := range rep.Widths {
		if r.Error != "" {
			fmt.Fprintf(tw, "%d\terror\t-\t-\t-\t-\t-\t%s\n", r.Width, r.Error)
			continue
		}
		fmt.Fprintf(tw, "%d\t%t\t%d\t%d\t%d\t%d\t%d\t%s\n",
			r.Width, r.Supported, r.Recommended, r.Minimum, r.SizeWithin,
			r.ReadWrite, r.ReadOnly, strings.Join(r.ReadOnlyOps, ","))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, r := range rep.Widths {
		if len(r.SignedOps) == 0 {
			continue
		}
		fmt.Fprintf(w, "\nwidth %d\n  bytes:    %s\n  signed:   %s\n  unsigned: %s\n",
			r.Width, strings.Join(r.BytesOps, " "), strings.Join(r.SignedOps, " "), strings.Join(r.UnsignedOps, " "))
	}

	if st := rep.SelfTest; st != nil {
		fmt.Fprintf(w, "\nself test: width=%d workers=%d iterations=%d want=%s got=%s ok=%t (%s)\n",
			st.Width, st.Workers, st.Iterations, st.Want, st.Got, st.OK, st.Elapsed)
	}
	return nil
}
