package controllers

import (
	"fmt"
	"os"
	"strings"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/pinbump/internal/domain/commands"
	"github.com/rios0rios0/pinbump/internal/domain/entities"
)

const (
	flagConfig     = "config"
	flagToken      = "token"
	flagDryRun     = "dry-run"
	flagVerbose    = "verbose"
	flagBase       = "base"
	flagBranch     = "branch"
	flagInclude    = "include"
	flagExclude    = "exclude"
	flagRelease    = "release"
	flagLabel      = "label"
	flagPrivileged = "privileged"
	flagCheck      = "check"
)

// AddGlobalFlags adds the flags shared by every subcommand.
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP(flagConfig, "c", "",
		"Path to config file (default: auto-detect)")
	cmd.PersistentFlags().String(flagToken, "",
		"GitHub token (default: config file, then GITHUB_TOKEN or GH_TOKEN)")
	cmd.PersistentFlags().Bool(flagDryRun, false,
		"Show what would be done without making changes")
	cmd.PersistentFlags().BoolP(flagVerbose, "v", false,
		"Enable verbose output")
}

// addPipelineFlags adds the flags tuning a single update run.
func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().String(flagBase, "", "Base branch (default: the repository default branch)")
	cmd.Flags().String(flagBranch, "", "Working branch receiving the commits (default: "+entities.DefaultBranchName+")")
	cmd.Flags().StringSlice(flagInclude, nil, "Only scan paths matching these gitignore-style patterns")
	cmd.Flags().StringSlice(flagExclude, nil, "Skip paths matching these gitignore-style patterns")
	cmd.Flags().String(flagRelease, "", "Coordinated release override, as name@version")
	cmd.Flags().StringSlice(flagLabel, nil, "Labels added to the pull request")
	cmd.Flags().Bool(flagPrivileged, false, "The token may modify workflow files")
	cmd.Flags().Bool(flagCheck, false, "Report outdated references and exit non-zero, without changes")
}

// readRunOptions collects the global and pipeline flags of cmd.
func readRunOptions(cmd *cobra.Command) (commands.RunOptions, error) {
	flags := cmd.Flags()
	token, _ := flags.GetString(flagToken)
	dryRun, _ := flags.GetBool(flagDryRun)
	verbose, _ := flags.GetBool(flagVerbose)
	base, _ := flags.GetString(flagBase)
	branch, _ := flags.GetString(flagBranch)
	include, _ := flags.GetStringSlice(flagInclude)
	exclude, _ := flags.GetStringSlice(flagExclude)
	releaseValue, _ := flags.GetString(flagRelease)
	labels, _ := flags.GetStringSlice(flagLabel)
	privileged, _ := flags.GetBool(flagPrivileged)
	check, _ := flags.GetBool(flagCheck)

	release, err := parseRelease(releaseValue)
	if err != nil {
		return commands.RunOptions{}, err
	}

	return commands.RunOptions{
		Token:      token,
		Base:       base,
		Branch:     branch,
		Include:    include,
		Exclude:    exclude,
		Release:    release,
		Labels:     labels,
		Privileged: privileged,
		Check:      check,
		DryRun:     dryRun,
		Verbose:    verbose,
	}, nil
}

// parseRelease parses "name@version". The name may itself start with "@".
func parseRelease(value string) (*entities.UpdateSpec, error) {
	if value == "" {
		return nil, nil //nolint:nilnil // no override
	}
	at := strings.LastIndex(value, "@")
	if at <= 0 || at == len(value)-1 {
		return nil, fmt.Errorf("invalid release %q, expected name@version", value)
	}
	target := value[at+1:]
	if !entities.IsValidVersion(target) {
		return nil, fmt.Errorf("invalid release version %q", target)
	}
	return &entities.UpdateSpec{Name: value[:at], Target: target}, nil
}

// loadSettings reads the configured or auto-detected settings file. Without
// any file the defaults apply, so repositories must then come from arguments.
func loadSettings(cmd *cobra.Command) (*entities.Settings, error) {
	configPath, _ := cmd.Flags().GetString(flagConfig)
	if configPath == "" {
		found, err := entities.FindConfigFile()
		if err != nil {
			logger.Debugf("No config file found, using defaults: %v", err)
			return entities.DefaultSettings(), nil
		}
		configPath = found
	}

	logger.Infof("Using config file: %s", configPath)
	settings, err := entities.NewSettings(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return settings, nil
}

// resolveToken picks the flag, then the settings, then the environment.
func resolveToken(flagValue string, settings *entities.Settings) string {
	if flagValue != "" {
		return flagValue
	}
	if settings != nil && settings.Token != "" {
		return settings.Token
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token
	}
	return os.Getenv("GH_TOKEN")
}
