package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/profilebot/profilebot/internal/profile"
)

var (
	profileType   string
	profileTarget string
)

// profileCmd represents the profile command
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage profiles",
}

// profileCreateCmd represents the profile create command
var profileCreateCmd = &cobra.Command{
	Use:   "create <userName>",
	Short: "Create a profile",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, _, err := buildApp()
		if err != nil {
			fatal(err)
		}

		p := profile.New(args[0], profile.ParseType(profileType))
		p.ProfileTarget = profileTarget

		created, err := a.Repository().Create(p)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Created %s profile %q (detail file: %s)\n", created.Type, created.UserName, created.UserDataPath)
	},
}

// profileListCmd represents the profile list command
var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	Run: func(cmd *cobra.Command, args []string) {
		a, _, err := buildApp()
		if err != nil {
			fatal(err)
		}

		profiles, err := a.Repository().GetAll()
		if err != nil {
			fatal(err)
		}

		if len(profiles) == 0 {
			fmt.Println("No profiles")
			return
		}
		for _, p := range profiles {
			fmt.Printf("%-24s %-10s tasks=%d followers=%d\n",
				p.UserName, p.Type, len(p.DueTasks), p.FollowersCount)
		}
	},
}

// profileDeleteCmd represents the profile delete command
var profileDeleteCmd = &cobra.Command{
	Use:   "delete <userName>",
	Short: "Delete a profile and its detail file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, _, err := buildApp()
		if err != nil {
			fatal(err)
		}

		if err := a.Repository().Delete(args[0]); err != nil {
			fatal(err)
		}
		fmt.Printf("Deleted profile %q\n", args[0])
	},
}

// profileImportCmd represents the profile import command
var profileImportCmd = &cobra.Command{
	Use:   "import <seed-file>",
	Short: "Import profiles from a YAML seed file",
	Long:  `Import profiles from a YAML seed file. Existing profiles are skipped.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, _, err := buildApp()
		if err != nil {
			fatal(err)
		}

		created, err := a.Repository().ImportYAML(args[0])
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Imported %d profiles\n", created)
	},
}

func init() {
	profileCreateCmd.Flags().StringVarP(&profileType, "type", "t", "agent", "profile type (agent|scraper|resource)")
	profileCreateCmd.Flags().StringVar(&profileTarget, "target", "", "topical target audience")

	profileCmd.AddCommand(profileCreateCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileDeleteCmd)
	profileCmd.AddCommand(profileImportCmd)
}
