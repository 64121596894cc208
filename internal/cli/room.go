package cli

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Room management commands",
	}

	cmd.AddCommand(newRoomCreateCmd())
	cmd.AddCommand(newRoomGetCmd())
	cmd.AddCommand(newRoomJoinCmd())
	cmd.AddCommand(newRoomQRCmd())

	return cmd
}

func roomPath(code string, parts ...string) string {
	path := "/api/v1/rooms/" + url.PathEscape(strings.ToUpper(code))
	for _, p := range parts {
		path += "/" + p
	}
	return path
}

func newRoomCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <host-name>",
		Short: "Create a new room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"host_name": args[0]}
			var result CreateRoomResult

			if err := client.Post("/api/v1/rooms", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newRoomGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <code>",
		Short: "Get room details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Room

			if err := client.Get(roomPath(args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newRoomJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <code> <player-name>",
		Short: "Reserve a name in a room",
		Long: `Reserve a player name in a room. The name stays unclaimed until a
real-time connection joins with it (see the play command).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"player_name": args[1]}
			var result JoinRoomResult

			if err := client.Post(roomPath(args[0], "join"), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newRoomQRCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "qr <code>",
		Short: "Save the room's join QR code as a PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			png, err := client.Raw(http.MethodGet, roomPath(args[0], "qr"), nil)
			if err != nil {
				return err
			}

			if file == "" {
				file = strings.ToUpper(args[0]) + ".png"
			}
			if err := os.WriteFile(file, png, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", file, err)
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.PrintMessage(fmt.Sprintf("Saved QR code to %s", file))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Output file (default: <code>.png)")

	return cmd
}
