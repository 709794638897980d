// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// stubgen generates the dispatch integration boilerplate for an external
// compute backend: the backend's kernel declaration header, and the fallback
// declarations/definitions/registrations for every operator it does not
// implement.
//
// Inputs are the runtime's native-functions registry YAML and the backend's
// coverage manifest YAML; see internal/manifest for the manifest schema.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"

	"github.com/gomlx/stubgen/internal/codegen"
	"github.com/gomlx/stubgen/internal/dispatch"
	"github.com/gomlx/stubgen/internal/manifest"
	"github.com/gomlx/stubgen/internal/ops"
	"github.com/gomlx/stubgen/internal/templates"
)

var (
	flagNativeFunctions = flag.String("native_functions", "",
		"Path to the native functions registry YAML (the runtime's canonical operator schemas).")
	flagSourceYaml = flag.String("source_yaml", "",
		"Path to the backend manifest YAML declaring which operators the backend implements.")
	flagOutputDir = flag.String("output_dir", ".",
		"Directory the generated files are written to.")
	flagDryRun = flag.Bool("dry_run", false,
		"Render everything but write no files.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if *flagNativeFunctions == "" || *flagSourceYaml == "" {
		klog.Errorf("Both -native_functions and -source_yaml are required. See 'stubgen -help'.")
		os.Exit(1)
	}

	reg := must.M1(ops.LoadRegistry(*flagNativeFunctions))
	klog.V(1).Infof("loaded %d native functions (%d grouped units)", reg.NumFunctions(), len(reg.Units))

	table := dispatch.NewKeyTable()
	parsed := must.M1(manifest.LoadAndParse(*flagSourceYaml, reg, table))

	artifacts := must.M1(codegen.Generate(reg, parsed, table))
	if artifacts == nil {
		// Generate already warned about the missing coverage list.
		return
	}

	fm := templates.NewFileManager(*flagOutputDir, parsed.Backend, *flagDryRun)
	var totalBytes int
	for _, artifact := range artifacts.All() {
		n := must.M1(fm.Write(artifact.Filename, artifact.Env))
		totalBytes += n
		fmt.Printf("✅ stubgen: \tsuccessfully generated %s\n", artifact.Filename)
	}

	printSummary(parsed, table, artifacts, totalBytes)
}

var (
	oddRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFF")).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999")).
			PaddingLeft(1).PaddingRight(1)
	titleStyle = lipgloss.NewStyle().Bold(true).Padding(1, 4, 1, 4)
)

func printSummary(parsed *manifest.Parsed, table *dispatch.KeyTable, artifacts *codegen.Artifacts, totalBytes int) {
	plain := table.Lookup(*parsed.BackendKey)
	autograd := table.Lookup(*parsed.AutogradKey)
	registrations := artifacts.FallbackSource.Env["dispatch_registrations"].([]string)
	autogradRegistrations := artifacts.FallbackSource.Env["dispatch_autograd_registrations"].([]string)

	fmt.Println(titleStyle.Render("Generated backend stubs"))
	t := lgtable.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := evenRowStyle
			if row%2 == 0 {
				s = oddRowStyle
			}
			if col == 0 {
				return s.Align(lipgloss.Right)
			}
			return s.Align(lipgloss.Left)
		})
	t.Row("backend", parsed.Backend)
	t.Row("cpp_namespace", parsed.CppNamespace)
	t.Row("ops covered ("+string(plain.Key)+")", humanize.Comma(int64(len(plain.Index))))
	t.Row("ops covered ("+string(autograd.Key)+")", humanize.Comma(int64(len(autograd.Index))))
	t.Row("fallbacks ("+string(plain.Key)+")", humanize.Comma(int64(len(registrations))))
	t.Row("fallbacks ("+string(autograd.Key)+")", humanize.Comma(int64(len(autogradRegistrations))))
	t.Row("output", humanize.Bytes(uint64(totalBytes)))
	fmt.Println(t.Render())
}
