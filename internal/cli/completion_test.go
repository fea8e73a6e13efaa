package cli

import (
	"slices"
	"testing"

	"github.com/spf13/cobra"
)

func TestCompleteList(t *testing.T) {
	complete := completeList("dot", "json", "png", "svg")
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"dot", "json", "png", "svg"}},
		{"s", []string{"svg"}},
		{"svg,", []string{"svg,dot", "svg,json", "svg,png"}},
		{"svg,png,j", []string{"svg,png,json"}},
		{"svg,x", nil},
	}
	for _, tt := range tests {
		got, dir := complete(nil, nil, tt.in)
		if !slices.Equal(got, tt.want) {
			t.Errorf("completeList(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if dir&cobra.ShellCompDirectiveNoSpace == 0 {
			t.Errorf("completeList(%q) should not add a space", tt.in)
		}
	}
}

func TestFlagCompletions(t *testing.T) {
	root := quietCLI().RootCommand()
	tests := []struct {
		cmd, flag, in string
		want          []string
	}{
		{"render", "format", "p", []string{"pdf", "png"}},
		{"render", "style", "", []string{"territories", "cells"}},
		{"render", "weight-by", "s", []string{"ships"}},
		{"cells", "sort", "", []string{"name", "area", "owner"}},
		{"inspect", "weight-by", "", []string{"unit", "ships"}},
	}
	for _, tt := range tests {
		cmd, _, err := root.Find([]string{tt.cmd})
		if err != nil {
			t.Fatalf("find %s: %v", tt.cmd, err)
		}
		fn, ok := cmd.GetFlagCompletionFunc(tt.flag)
		if !ok {
			t.Errorf("%s --%s has no completion", tt.cmd, tt.flag)
			continue
		}
		got, _ := fn(cmd, nil, tt.in)
		if !slices.Equal(got, tt.want) {
			t.Errorf("%s --%s %q = %v, want %v", tt.cmd, tt.flag, tt.in, got, tt.want)
		}
	}
}
