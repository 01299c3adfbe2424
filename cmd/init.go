package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type configField struct {
	key     string
	comment string
}

type configSection struct {
	name    string
	comment string
	fields  []configField
}

// configLayout is the order and documentation of the keys written by init.
var configLayout = []configSection{
	{
		name:    "state",
		comment: "Snapshot kept between runs so scan reports what changed since the last one.",
		fields: []configField{
			{"file", "Snapshot path. The extension picks the encoding: " + formatList() + "."},
			{"disabled", "Scan without reading or writing the snapshot."},
		},
	},
	{
		name:    "scan",
		comment: "How files are walked and compared.",
		fields: []configField{
			{"hash", "Content hash: " + strings.Join(hashAlgorithms(), ", ") + ". With none only size and mtime are compared."},
			{"parallel", "Roots scanned concurrently."},
			{"max_depth", "Maximum directory depth below each root, 0 for unlimited."},
			{"follow_symlinks", "Follow symbolic links. A file reachable through several links is reported once."},
		},
	},
	{
		name:    "paths",
		comment: "Filters applied to paths relative to each root.",
		fields: []configField{
			{"include", "Glob patterns a file must match. ** spans directories and patterns without a slash match the base name."},
			{"ext", "Extensions to keep, without the leading dot."},
			{"exclude", "Regular expressions dropping matching files."},
			{"exclude_dirs", "Directory name globs that are never entered."},
		},
	},
	{
		name:    "watch",
		comment: "Polling used by the watch command.",
		fields: []configField{
			{"interval", "Delay between rescans."},
		},
	},
	{
		name:    "log",
		comment: "Diagnostic log. The log file and its rotated copies are never tracked.",
		fields: []configField{
			{"filename", "Log file path."},
			{"level", "One of debug, info, warn or error."},
			{"verbose", "Force debug logging."},
			{"max_size", "Megabytes written before the file is rotated."},
			{"max_backups", "Rotated files to keep."},
			{"max_age", "Days a rotated file is kept."},
			{"compress", "Gzip rotated files."},
		},
	},
}

// initCmd represents the init command.
var initCmd = newInitCmd()

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate a default rescan.yaml configuration file",
		Long: `Create a commented rescan.yaml in the current working directory populated
with the current CLI defaults so it can be edited manually. Flags passed to
init are written as the new defaults.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			targetPath := filepath.Join(configFolderPath, configFileName)

			if err := writeConfigFile(targetPath); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			cmd.Printf("wrote %s\n", targetPath)

			return nil
		},
	}
}

// writeConfigFile renders configLayout with the values viper currently holds.
// An existing file is never overwritten.
func writeConfigFile(path string) error {
	doc, err := configDocument()
	if err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%s already exists", path)
	}

	if err != nil {
		return err
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)

	if err := encoder.Encode(doc); err != nil {
		_ = file.Close()
		return err
	}

	if err := encoder.Close(); err != nil {
		_ = file.Close()
		return err
	}

	return file.Close()
}

func configDocument() (*yaml.Node, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}

	if err := appendConfigValue(root, configVersionKey, "# Layout version of this file.", viper.Get(configVersionKey)); err != nil {
		return nil, err
	}

	for _, section := range configLayout {
		body := &yaml.Node{Kind: yaml.MappingNode}

		for _, field := range section.fields {
			value := viper.Get(section.name + "." + field.key)
			if err := appendConfigValue(body, field.key, "# "+field.comment, value); err != nil {
				return nil, err
			}
		}

		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: section.name, HeadComment: "# " + section.comment},
			body,
		)
	}

	return &yaml.Node{
		Kind:        yaml.DocumentNode,
		HeadComment: "# rescan configuration. Command line flags and RESCAN_* environment variables take precedence.",
		Content:     []*yaml.Node{root},
	}, nil
}

func appendConfigValue(mapping *yaml.Node, key, comment string, value any) error {
	node := &yaml.Node{}
	if err := node.Encode(value); err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key, HeadComment: comment},
		node,
	)

	return nil
}

func init() {
	rootCmd.AddCommand(initCmd)
}
