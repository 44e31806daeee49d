package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
	"github.com/olekukonko/tablewriter"
	"github.com/thediveo/enumflag/v2"

	"github.com/abbot-build/abbot/pkg/bundle"
)

type outputFormat enumflag.Flag

const (
	outputTable outputFormat = iota
	outputJSON
	outputYAML
)

var outputFormatIds = map[outputFormat][]string{
	outputTable: {"table"},
	outputJSON:  {"json"},
	outputYAML:  {"yaml"},
}

func write(w io.Writer, format outputFormat, v any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		bs, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(bs)
		return err
	}
}

type bundleInfo struct {
	Name       string      `json:"name"`
	Type       bundle.Type `json:"type"`
	SourceRoot string      `json:"source_root"`
	Parent     string      `json:"parent,omitempty"`
}

func describe(bundles []*bundle.Bundle) []bundleInfo {
	infos := make([]bundleInfo, 0, len(bundles))
	for _, b := range bundles {
		info := bundleInfo{Name: b.BundleName(), Type: b.Type(), SourceRoot: b.SourceRoot()}
		if p := b.Parent(); p != nil {
			info.Parent = p.BundleName()
		}
		infos = append(infos, info)
	}
	return infos
}

func writeTable(w io.Writer, infos []bundleInfo) error {
	table := tablewriter.NewWriter(w)
	table.Header("Name", "Type", "Parent", "Source root")
	for _, info := range infos {
		if err := table.Append(info.Name, string(info.Type), info.Parent, info.SourceRoot); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}
	}
	return table.Render()
}
