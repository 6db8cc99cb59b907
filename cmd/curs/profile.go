package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akobyansamvel/curs/internal/api"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show and edit your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}

			me, err := e.client.Me(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (#%d)\n", me.User.Username, me.User.ID)
			if me.User.FirstName != "" || me.User.LastName != "" {
				fmt.Fprintf(out, "имя: %s %s\n", me.User.FirstName, me.User.LastName)
			}
			if me.Profile.City != "" {
				fmt.Fprintf(out, "город: %s\n", me.Profile.City)
			}
			if me.Profile.Bio != "" {
				fmt.Fprintf(out, "о себе: %s\n", me.Profile.Bio)
			}
			fmt.Fprintf(out, "рейтинг: %.1f\n", me.Profile.Rating)
			return nil
		},
	}

	cmd.AddCommand(newProfileEditCmd())
	cmd.AddCommand(newProfileInterestsCmd())
	return cmd
}

func newProfileEditCmd() *cobra.Command {
	var firstName, lastName, city, bio string

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Update profile fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}

			var edit api.ProfileEdit
			if cmd.Flags().Changed("name") {
				edit.FirstName = &firstName
			}
			if cmd.Flags().Changed("surname") {
				edit.LastName = &lastName
			}
			if cmd.Flags().Changed("city") {
				edit.City = &city
			}
			if cmd.Flags().Changed("bio") {
				edit.Bio = &bio
			}

			if _, err := e.client.UpdateProfile(cmd.Context(), edit); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Профиль обновлён")
			return nil
		},
	}

	cmd.Flags().StringVar(&firstName, "name", "", "first name")
	cmd.Flags().StringVar(&lastName, "surname", "", "last name")
	cmd.Flags().StringVar(&city, "city", "", "city")
	cmd.Flags().StringVar(&bio, "bio", "", "about")
	return cmd
}

func newProfileInterestsCmd() *cobra.Command {
	var addActivity int64
	var level string

	cmd := &cobra.Command{
		Use:   "interests",
		Short: "List interests, or add one with --add",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if addActivity != 0 {
				interest, err := e.client.AddInterest(cmd.Context(), addActivity, level)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Добавлено: %s (%s)\n", interest.Activity.Name, interest.Level)
				return nil
			}

			interests, err := e.client.Interests(cmd.Context())
			if err != nil {
				return err
			}
			for _, interest := range interests {
				fmt.Fprintf(out, "%4d  %s (%s)\n", interest.ID, interest.Activity.Name, interest.Level)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&addActivity, "add", 0, "activity id to add as interest")
	cmd.Flags().StringVar(&level, "level", "beginner", "skill level for --add")
	return cmd
}
