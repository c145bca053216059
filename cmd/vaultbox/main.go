package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/VaultBox/internal/app"
	"github.com/dharsanguruparan/VaultBox/internal/client"
	"github.com/dharsanguruparan/VaultBox/internal/config"
	"github.com/dharsanguruparan/VaultBox/internal/model"
	"github.com/dharsanguruparan/VaultBox/internal/observability"
)

var (
	serverURL string
	userID    string
	cacheDir  string
	verbose   bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "vaultbox: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vaultbox",
		Short: "VaultBox server and client CLI",
		Long: `VaultBox stores personal files behind a small JSON API. The serve and migrate
commands run the server side; user and files talk to a running server and fall
back to the local cache when it cannot be reached.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&serverURL, "server", envOr("VAULTBOX_SERVER", "http://localhost:8080/api"), "API base URL")
	cmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "User ID (defaults to the saved session)")
	cmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", defaultCacheDir(), "Directory for the session and offline cache")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log gateway failures to stderr")
	cmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newUserCmd(),
		newFilesCmd(),
	)
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := observability.InitLogger(cfg.Dev)
			if err != nil {
				return err
			}
			defer logger.Sync()
			return app.Serve(cmd.Context(), cfg, logger)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create indexes or tables for the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := app.Migrate(cmd.Context(), cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s store ready\n", cfg.Store)
			return nil
		},
	}
}

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Register, log in, and manage the profile",
	}
	cmd.AddCommand(newRegisterCmd(), newLoginCmd(), newWhoamiCmd(), newUpdateUserCmd())
	return cmd
}

func newRegisterCmd() *cobra.Command {
	var data client.RegisterData
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and save the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := newGateway(false)
			if err != nil {
				return err
			}
			user, err := gw.Register(cmd.Context(), data)
			if err != nil {
				return err
			}
			if err := saveSession(session{UserID: user.ID, Token: gw.Token()}); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	}
	cmd.Flags().StringVar(&data.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&data.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&data.Phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&data.Password, "password", "", "Password")
	return cmd
}

func newLoginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := newGateway(false)
			if err != nil {
				return err
			}
			user, err := gw.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := saveSession(session{UserID: user.ID, Token: gw.Token()}); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	return cmd
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := newGateway(false)
			if err != nil {
				return err
			}
			id, err := currentUser()
			if err != nil {
				return err
			}
			user, err := gw.GetUser(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	}
}

func newUpdateUserCmd() *cobra.Command {
	var update client.UserUpdate
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields; omitted flags are left alone",
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := newGateway(false)
			if err != nil {
				return err
			}
			id, err := currentUser()
			if err != nil {
				return err
			}
			user, err := gw.UpdateUser(cmd.Context(), id, update)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	}
	cmd.Flags().StringVar(&update.Name, "name", "", "New display name")
	cmd.Flags().StringVar(&update.Email, "email", "", "New email address")
	cmd.Flags().StringVar(&update.Phone, "phone", "", "New phone number")
	cmd.Flags().StringVar(&update.Password, "password", "", "New password")
	return cmd
}

func newFilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Manage stored files",
	}
	cmd.AddCommand(
		newListCmd(),
		newAddCmd(),
		newGetCmd(),
		newRenameCmd(),
		newRemoveCmd(),
		newSearchCmd(),
		newStatsCmd(),
	)
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List files, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, id, err := fileGateway()
			if err != nil {
				return err
			}
			return printFiles(cmd.OutOrStdout(), gw.GetFiles(cmd.Context(), id))
		},
	}
}

func newAddCmd() *cobra.Command {
	var name, details, fileType string
	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Upload a local file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, id, err := fileGateway()
			if err != nil {
				return err
			}
			upload, err := readUpload(args[0], name, fileType, details)
			if err != nil {
				return err
			}
			file := gw.AddFile(cmd.Context(), id, upload)
			if file == nil {
				return errors.New("upload failed")
			}
			return printJSON(cmd.OutOrStdout(), summarize(*file))
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Stored name (defaults to the file name)")
	cmd.Flags().StringVar(&details, "details", "", "Free-text details")
	cmd.Flags().StringVar(&fileType, "type", "", "image, pdf, video or text (detected when empty)")
	return cmd
}

func newGetCmd() *cobra.Command {
	var withContent bool
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, id, err := fileGateway()
			if err != nil {
				return err
			}
			file := gw.GetFileByID(cmd.Context(), id, args[0])
			if file == nil {
				return fmt.Errorf("file %s not found", args[0])
			}
			if withContent {
				return printJSON(cmd.OutOrStdout(), file)
			}
			return printJSON(cmd.OutOrStdout(), summarize(*file))
		},
	}
	cmd.Flags().BoolVar(&withContent, "content", false, "Include the stored content")
	return cmd
}

func newRenameCmd() *cobra.Command {
	var name, details string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the name or details of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, id, err := fileGateway()
			if err != nil {
				return err
			}
			var patch model.FilePatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("details") {
				patch.Details = &details
			}
			file := gw.UpdateFile(cmd.Context(), id, args[0], patch)
			if file == nil {
				return errors.New("update failed")
			}
			return printJSON(cmd.OutOrStdout(), summarize(*file))
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&details, "details", "", "New details")
	return cmd
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, id, err := fileGateway()
			if err != nil {
				return err
			}
			if !gw.DeleteFile(cmd.Context(), id, args[0]) {
				return fmt.Errorf("delete %s failed", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
			return nil
		},
	}
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search names and details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, id, err := fileGateway()
			if err != nil {
				return err
			}
			return printFiles(cmd.OutOrStdout(), gw.SearchFiles(cmd.Context(), id, args[0]))
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count files by type",
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, id, err := fileGateway()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), gw.GetStats(cmd.Context(), id))
		},
	}
}

type session struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

func sessionPath() string { return filepath.Join(cacheDir, "session.json") }

func loadSession() (session, error) {
	var s session
	data, err := os.ReadFile(sessionPath())
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read session: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("decode session: %w", err)
	}
	return s, nil
}

func saveSession(s session) error {
	if err := os.MkdirAll(cacheDir, 0o750); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(sessionPath(), data, 0o600)
}

func currentUser() (string, error) {
	if userID != "" {
		return userID, nil
	}
	s, err := loadSession()
	if err != nil {
		return "", err
	}
	if s.UserID == "" {
		return "", errors.New("no user: log in first or pass --user")
	}
	return s.UserID, nil
}

func newGateway(withCache bool) (*client.Gateway, error) {
	opts := []client.Option{}
	if verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		opts = append(opts, client.WithLogger(logger))
	}
	s, err := loadSession()
	if err != nil {
		return nil, err
	}
	if s.Token != "" && (userID == "" || userID == s.UserID) {
		opts = append(opts, client.WithToken(s.Token))
	}
	if withCache {
		cache, err := client.NewCache(filepath.Join(cacheDir, "files"))
		if err != nil {
			return nil, err
		}
		opts = append(opts, client.WithCache(cache))
	}
	return client.New(serverURL, opts...), nil
}

func fileGateway() (*client.Gateway, string, error) {
	id, err := currentUser()
	if err != nil {
		return nil, "", err
	}
	gw, err := newGateway(true)
	if err != nil {
		return nil, "", err
	}
	return gw, id, nil
}

func readUpload(path, name, fileType, details string) (client.NewFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return client.NewFile{}, fmt.Errorf("read %s: %w", path, err)
	}
	mediaType := mime.TypeByExtension(filepath.Ext(path))
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	t := model.FileType(fileType)
	if t == "" {
		t = detectType(mediaType)
	}
	if !t.Valid() {
		return client.NewFile{}, fmt.Errorf("unsupported file type %q", t)
	}
	if name == "" {
		name = filepath.Base(path)
	}
	return client.NewFile{
		Name:    name,
		Type:    t,
		Size:    int64(len(data)),
		Content: "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data),
		Details: details,
	}, nil
}

func detectType(mediaType string) model.FileType {
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return model.TypeImage
	case strings.HasPrefix(mediaType, "video/"):
		return model.TypeVideo
	case mediaType == "application/pdf":
		return model.TypePDF
	default:
		return model.TypeText
	}
}

type fileSummary struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Type      model.FileType `json:"type"`
	Size      int64          `json:"size"`
	Details   string         `json:"details,omitempty"`
	CreatedAt string         `json:"createdAt"`
}

func summarize(f model.FileItem) fileSummary {
	return fileSummary{
		ID:        f.ID,
		Name:      f.Name,
		Type:      f.Type,
		Size:      f.Size,
		Details:   f.Details,
		CreatedAt: f.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func printFiles(w io.Writer, files []model.FileItem) error {
	out := make([]fileSummary, 0, len(files))
	for _, f := range files {
		out = append(out, summarize(f))
	}
	return printJSON(w, out)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".vaultbox"
	}
	return filepath.Join(dir, "vaultbox")
}
