/*
 Licensed to the Apache Software Foundation (ASF) under one
 or more contributor license agreements.  See the NOTICE file
 distributed with this work for additional information
 regarding copyright ownership.  The ASF licenses this file
 to you under the Apache License, Version 2.0 (the
 "License"); you may not use this file except in compliance
 with the License.  You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apache/yunikorn-slurm-adapter/pkg/common/configs"
	"github.com/apache/yunikorn-slurm-adapter/pkg/entrypoint"
	"github.com/apache/yunikorn-slurm-adapter/pkg/rmproxy"
	"github.com/apache/yunikorn-slurm-adapter/pkg/scheduler"
)

// adapterCLI wires the sub commands to one invocation of the adapter.
// Only the command result is written to stdout, diagnostics go to the log on stderr.
type adapterCLI struct {
	rootCmd *cobra.Command

	configPath string
	runner     rmproxy.Runner
	stdout     io.Writer
}

type command interface {
	registerFlags() *cobra.Command
	run(cl *adapterCLI, cmd *cobra.Command, args []string) error
}

// newAdapterCLI returns the CLI, a nil runner runs the real cluster commands.
func newAdapterCLI(runner rmproxy.Runner, stdout io.Writer) *adapterCLI {
	c := &adapterCLI{
		runner: runner,
		stdout: stdout,
	}
	c.rootCmd = &cobra.Command{
		Use:           "slurmadapter",
		Short:         "slurmadapter submits workflow jobs to a Slurm cluster and reports their status",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	c.rootCmd.PersistentFlags().StringVar(&c.configPath, "config", "",
		"adapter configuration file, defaults to $"+configs.ConfigPathEnv+" or "+configs.DefaultConfigFile+" next to the executable")
	c.rootCmd.SetOut(stdout)

	c.addCmd(&submitCmd{})
	c.addCmd(&statusCmd{})
	c.addCmd(&catalogCmd{})
	c.addCmd(&checkConfigCmd{})
	c.addCmd(&sampleConfigCmd{})
	return c
}

func (c *adapterCLI) Exec(args []string) error {
	c.rootCmd.SetArgs(args)
	return c.rootCmd.Execute()
}

func (c *adapterCLI) addCmd(cmd command) {
	cobraCmd := cmd.registerFlags()
	cobraCmd.RunE = func(innerCmd *cobra.Command, args []string) error {
		return cmd.run(c, innerCmd, args)
	}
	c.rootCmd.AddCommand(cobraCmd)
}

func (c *adapterCLI) start() (*entrypoint.ServiceContext, error) {
	if c.runner == nil {
		return entrypoint.StartAllServices(c.configPath)
	}
	return entrypoint.StartAllServicesWithRunner(c.configPath, c.runner)
}

type submitCmd struct{}

func (s *submitCmd) registerFlags() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <jobscript>",
		Short: "Submit the job script and print the cluster job id",
		Args:  cobra.ExactArgs(1),
	}
}

func (s *submitCmd) run(cl *adapterCLI, cmd *cobra.Command, args []string) error {
	svc, err := cl.start()
	if err != nil {
		return err
	}
	defer svc.StopAll()
	jobID, err := svc.Pipeline.Submit(context.Background(), args[0])
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cl.stdout, jobID)
	return err
}

type statusCmd struct{}

func (s *statusCmd) registerFlags() *cobra.Command {
	return &cobra.Command{
		Use:   "status <jobid>",
		Short: "Print the job outcome: running, success or failed",
		Args:  cobra.ExactArgs(1),
	}
}

func (s *statusCmd) run(cl *adapterCLI, cmd *cobra.Command, args []string) error {
	svc, err := cl.start()
	if err != nil {
		return err
	}
	defer svc.StopAll()
	outcome, err := svc.Pipeline.Status(context.Background(), args[0])
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cl.stdout, outcome)
	return err
}

type catalogCmd struct {
	refresh bool
}

func (c *catalogCmd) registerFlags() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the partition catalog used for matching",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().BoolVar(&c.refresh, "refresh", false, "rebuild the catalog even if it is fresh")
	return cmd
}

func (c *catalogCmd) run(cl *adapterCLI, cmd *cobra.Command, args []string) error {
	svc, err := cl.start()
	if err != nil {
		return err
	}
	defer svc.StopAll()
	catalog, err := svc.Pipeline.Catalog(context.Background(), c.refresh)
	if err != nil {
		return err
	}
	out, err := scheduler.MarshalCatalog(catalog)
	if err != nil {
		return err
	}
	_, err = cl.stdout.Write(out)
	return err
}

type checkConfigCmd struct{}

func (c *checkConfigCmd) registerFlags() *cobra.Command {
	return &cobra.Command{
		Use:   "checkconfig <file>",
		Short: "Validate an adapter configuration file",
		Args:  cobra.ExactArgs(1),
	}
}

func (c *checkConfigCmd) run(cl *adapterCLI, cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	conf, err := configs.LoadAdapterConfigFromByteArray(content)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cl.stdout, "configuration is valid, checksum %s\n", conf.Checksum)
	return err
}

type sampleConfigCmd struct{}

func (c *sampleConfigCmd) registerFlags() *cobra.Command {
	return &cobra.Command{
		Use:   "sampleconfig",
		Short: "Print a complete configuration to start a " + configs.DefaultConfigFile + " from",
		Args:  cobra.NoArgs,
	}
}

func (c *sampleConfigCmd) run(cl *adapterCLI, cmd *cobra.Command, args []string) error {
	_, err := io.WriteString(cl.stdout, strings.TrimPrefix(configs.SampleAdapterConfig, "\n"))
	return err
}
