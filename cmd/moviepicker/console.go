package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/John-Robertt/MoviePicker/internal/app/run"
	"github.com/John-Robertt/MoviePicker/internal/extract"
)

var _ run.Observer = (*console)(nil)

// console 把流水线事件转换为面向用户的控制台行（stdout）；
// 诊断信息交给 logger（stderr）。
type console struct {
	w      io.Writer
	output string
	log    logrus.FieldLogger
}

func newConsole(w io.Writer, output string, log logrus.FieldLogger) *console {
	return &console{w: w, output: output, log: log}
}

func (c *console) OnStart(url string, fromCache bool) {
	c.log.WithFields(logrus.Fields{"url": url, "from_cache": fromCache}).Info("fetching ranking page")
}

func (c *console) OnFetchFailed(url string, err error) {
	fmt.Fprintf(c.w, "Error fetching the webpage: %v\n", err)
}

func (c *console) OnSkipped(s extract.Skip) {
	if s.Reason == extract.SkipEmptyTitle {
		c.log.WithField("index", s.Index).Warn(s.Message())
		return
	}
	fmt.Fprintln(c.w, s.Message())
}

func (c *console) OnExtracted(records, skipped int) {
	c.log.WithFields(logrus.Fields{"records": records, "skipped": skipped}).Info("extracted")
}

func (c *console) OnSaved(location string, records int) {
	if location == c.output {
		fmt.Fprintf(c.w, "Data saved to %s\n", location)
		return
	}
	fmt.Fprintf(c.w, "Data mirrored to %s\n", location)
}
