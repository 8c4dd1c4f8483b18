package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/profilebot/profilebot/internal/profile"
)

var taskArgs string

// taskCmd represents the task command
var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage queued tasks",
}

// taskAddCmd represents the task add command
var taskAddCmd = &cobra.Command{
	Use:   "add <userName> <module> <action>",
	Short: "Queue a task on a profile",
	Long: `Queue a task on a profile. Arguments are passed as a comma-separated
string, e.g.:

  profilebot task add alice automation follow --args bob`,
	Args: cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		a, _, err := buildApp()
		if err != nil {
			fatal(err)
		}

		task := profile.NewTask(args[1], args[2], taskArgs)
		if err := a.Repository().AddTask(args[0], task); err != nil {
			fatal(err)
		}
		fmt.Printf("Queued %s on %q\n", task.FullActionName(), args[0])
	},
}

// taskRemoveCmd represents the task remove command
var taskRemoveCmd = &cobra.Command{
	Use:   "remove <userName> <module> <action>",
	Short: "Remove queued tasks matching the given fields",
	Long: `Remove every queued task whose module, action, and arguments match.
Structurally identical duplicates are all removed by one call.`,
	Args: cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		a, _, err := buildApp()
		if err != nil {
			fatal(err)
		}

		task := profile.NewTask(args[1], args[2], taskArgs)
		if err := a.Repository().RemoveTask(args[0], task); err != nil {
			fatal(err)
		}
		fmt.Printf("Removed %s from %q\n", task.FullActionName(), args[0])
	},
}

func init() {
	taskAddCmd.Flags().StringVar(&taskArgs, "args", "", "comma-separated task arguments")
	taskRemoveCmd.Flags().StringVar(&taskArgs, "args", "", "comma-separated task arguments")

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskRemoveCmd)
}
