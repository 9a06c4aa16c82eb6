// Command dbbm is the database branch deployment engine's CLI front-end
// (spec §6): a single `deploy` operation exposed at the root command,
// following cli/main.go's cobra-rootCmd shape.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aiedail92/DBBranchManager/internal/config"
	"github.com/aiedail92/DBBranchManager/internal/dbbmerr"
	"github.com/aiedail92/DBBranchManager/internal/deploy"
	"github.com/aiedail92/DBBranchManager/internal/logx"
	"github.com/aiedail92/DBBranchManager/internal/sqlrunner"

	_ "github.com/aiedail92/DBBranchManager/internal/task/copytask"
	_ "github.com/aiedail92/DBBranchManager/internal/task/sqltask"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var (
		release string
		env     string
		dryRun  bool
		resume  bool
		noCache bool
		noBeeps bool
	)

	rootCmd := &cobra.Command{
		Use:           "dbbm",
		Short:         "Deploy a release to the configured SQL Server target",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDeploy(deployFlags{
				release: release,
				env:     env,
				dryRun:  dryRun,
				resume:  resume,
				noCache: noCache,
				noBeeps: noBeeps,
			})
		},
	}

	rootCmd.Flags().StringVarP(&release, "release", "r", "", "override the default active release")
	rootCmd.Flags().StringVarP(&env, "env", "e", "", "override the default environment")
	rootCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "calculate and log only, no side effects")
	rootCmd.Flags().BoolVarP(&resume, "resume", "s", false, "require the resume file and start from its hash")
	rootCmd.Flags().BoolVarP(&noCache, "no-cache", "C", false, "use a null cache: no hits, no adds, no GC")
	rootCmd.Flags().BoolVarP(&noBeeps, "no-beeps", "B", false, "disable the buzzer")

	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		var soft *dbbmerr.SoftFailure
		if errors.As(err, &soft) {
			fmt.Fprintln(os.Stderr, soft.Error())
			return 1
		}
		var derr *dbbmerr.Error
		if errors.As(err, &derr) {
			fmt.Fprintln(os.Stderr, derr.Error())
			return 1
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

type deployFlags struct {
	release string
	env     string
	dryRun  bool
	resume  bool
	noCache bool
	noBeeps bool
}

func runDeploy(flags deployFlags) error {
	cwd, err := os.Getwd()
	if err != nil {
		return dbbmerr.Wrap(dbbmerr.KindIoFailure, "getting working directory", err)
	}

	projectPath, err := config.FindProjectFile(cwd)
	if err != nil {
		return err
	}
	projectDir := filepath.Dir(projectPath)

	project, err := config.LoadProject(projectPath)
	if err != nil {
		return err
	}
	user, err := config.LoadUser(filepath.Join(projectDir, "user.json"))
	if err != nil {
		return err
	}
	releases, err := config.LoadReleases(filepath.Join(projectDir, project.Releases))
	if err != nil {
		return err
	}
	features, err := config.LoadFeatures(project, projectDir)
	if err != nil {
		return err
	}
	tasks, err := config.LoadTasks(project, projectDir)
	if err != nil {
		return err
	}

	log, err := logx.New(flags.dryRun)
	if err != nil {
		return dbbmerr.Wrap(dbbmerr.KindIoFailure, "initializing logger", err)
	}
	defer log.Sync()

	runner := &sqlrunner.Runner{}

	d := deploy.New(deploy.Options{
		Project:       project,
		User:          user,
		Releases:      releases,
		Features:      features,
		Tasks:         tasks,
		ActiveRelease: flags.release,
		Environment:   flags.env,
		DryRun:        flags.dryRun,
		Resume:        flags.resume,
		NoCache:       flags.noCache,
		NoBeeps:       flags.noBeeps,
		SqlExecutor:   runner,
		Restorer:      runner,
		Streamer:      runner,
		Log:           log,
	})

	return d.Deploy()
}
