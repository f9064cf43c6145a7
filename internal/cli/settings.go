package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/resultgrid/internal/domain/settings"
)

type settingsOptions struct {
	root     *rootOptions
	step     string
	artifact string
	set      []string
}

func newSettingsCommand(root *rootOptions) *cobra.Command {
	opts := &settingsOptions{root: root}
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Edit a step settings artifact",
		Long: `Settings loads a step settings artifact (or the step defaults), applies
field=value edits and prints the document to save. JSON-text fields
(headers, processors, customHook) that do not parse are kept as text.`,
		Example: `  gridctl settings --step mapping
  gridctl settings --step matching --artifact saved.json --set targetDatabase=data-hub-STAGING
  gridctl settings --step custom --set 'customHook={"module":"/hook.sjs"}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSettings(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.step, "step", "", "Step type: ingestion, mapping, matching, merging, custom")
	cmd.Flags().StringVar(&opts.artifact, "artifact", "", "Saved artifact JSON file (- for stdin)")
	cmd.Flags().StringArrayVar(&opts.set, "set", nil, "Field edit as field=value (repeatable)")
	_ = cmd.MarkFlagRequired("step")
	return cmd
}

func runSettings(cmd *cobra.Command, opts *settingsOptions) error {
	log, err := opts.root.logger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	step, err := settings.ParseStepType(opts.step)
	if err != nil {
		return err
	}
	form := settings.NewForm(step, log)

	if opts.artifact != "" {
		data, err := readInput(cmd, opts.artifact)
		if err != nil {
			return err
		}
		var a settings.Artifact
		if err := json.Unmarshal(data, &a); err != nil {
			return fmt.Errorf("parse artifact: %w", err)
		}
		form.Load(&a)
	}

	for _, kv := range opts.set {
		field, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("invalid --set %q: want field=value", kv)
		}
		f := settings.Field(strings.TrimSpace(field))
		if err := form.Set(f, value); err != nil {
			return err
		}
		log.Debug("settings field edited", zap.String("field", string(f)), zap.Bool("touched", form.Touched(f)))
	}

	out := cmd.OutOrStdout()
	if err := writeJSON(out, form.Artifact()); err != nil {
		return err
	}
	if form.Dirty() {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "modified: unsaved changes")
	}
	return nil
}
