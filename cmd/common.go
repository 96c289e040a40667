package cmd

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sw33tLie/applinks/internal/utils"
	"github.com/sw33tLie/applinks/pkg/applink"
	"github.com/sw33tLie/applinks/pkg/events"
	"github.com/sw33tLie/applinks/pkg/navigation"
	"github.com/sw33tLie/applinks/pkg/opener"
	"github.com/sw33tLie/applinks/pkg/resolver"
	"github.com/sw33tLie/applinks/pkg/storage"
	"github.com/sw33tLie/applinks/pkg/webresolver"
	"github.com/sw33tLie/applinks/pkg/whttp"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// session holds what a command needs to resolve and navigate. db and lock are
// nil unless a database path is configured.
type session struct {
	db       *storage.DB
	lock     *utils.DBLock
	resolver applink.Resolver
	deps     navigation.Dependencies
}

func (s *session) Close() {
	if s.db != nil {
		s.db.Close()
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil {
			utils.Log.Warn(err)
		}
	}
}

// newSession wires the configured resolver, opener and event posters.
func newSession(cmd *cobra.Command, dryRun bool) (*session, error) {
	s := &session{}

	if path := viper.GetString("db.path"); path != "" {
		db, lock, err := openLockedDB(path)
		if err != nil {
			return nil, err
		}
		s.db, s.lock = db, lock
	}

	client, err := newHTTPClient()
	if err != nil {
		s.Close()
		return nil, err
	}
	kind, _ := cmd.Flags().GetString("resolver")
	r, err := newResolver(kind, client, s.db)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.resolver = r

	var urlOpener navigation.URLOpener
	schemes := viper.GetStringSlice("opener.schemes")
	if dryRun {
		urlOpener = opener.NewDryRun(os.Stdout, schemes)
	} else {
		urlOpener, err = opener.NewCommand(viper.GetString("opener.command"), schemes)
		if err != nil {
			s.Close()
			return nil, err
		}
	}

	posters := events.Multi{events.NewLogPoster()}
	if s.db != nil {
		posters = append(posters, events.NewStorePoster(s.db))
	}

	s.deps = navigation.Dependencies{
		Settings:    navigation.StaticSettings(viper.GetString("sdk.version")),
		URLOpener:   urlOpener,
		EventPoster: posters,
		Resolver:    r,
	}
	return s, nil
}

// openLockedDB opens the database at path while holding its file lock.
func openLockedDB(path string) (*storage.DB, *utils.DBLock, error) {
	absPath, err := utils.GetAbsDBPath(path)
	if err != nil {
		return nil, nil, err
	}
	if err := utils.EnsureDBDir(absPath); err != nil {
		return nil, nil, fmt.Errorf("could not create db directory: %w", err)
	}

	lock, err := utils.NewDBLock(absPath)
	if err != nil {
		return nil, nil, err
	}
	if err := lock.Lock(); err != nil {
		return nil, nil, err
	}

	db, err := storage.Open(absPath)
	if err != nil {
		lock.Unlock()
		return nil, nil, fmt.Errorf("could not open db %s: %w", absPath, err)
	}
	return db, lock, nil
}

func newHTTPClient() (*retryablehttp.Client, error) {
	return whttp.NewClient(whttp.ClientOptions{
		Retries: viper.GetInt("http.retries"),
		Timeout: viper.GetDuration("http.timeout"),
		Proxy:   viper.GetString("proxy"),
	})
}

func configuredIdiom() (applink.Idiom, error) {
	return applink.ParseIdiom(viper.GetString("device.idiom"))
}

func configuredTokens() resolver.Tokens {
	return resolver.Tokens{
		AppID:       viper.GetString("graph.appid"),
		ClientToken: viper.GetString("graph.clienttoken"),
		AccessToken: viper.GetString("graph.accesstoken"),
	}
}

// newResolver builds the resolver named by kind. "auto" picks the Graph index
// when credentials are configured and the web resolver otherwise.
func newResolver(kind string, client *retryablehttp.Client, db *storage.DB) (applink.Resolver, error) {
	idiom, err := configuredIdiom()
	if err != nil {
		return nil, err
	}
	tokens := configuredTokens()

	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" || kind == "auto" {
		kind = "web"
		if tokens.Token() != "" {
			kind = "graph"
		}
		utils.Log.Debugf("Using the %s resolver", kind)
	}

	var cache resolver.Cache
	if db != nil {
		cache = db
	}

	switch kind {
	case "graph":
		graph, err := resolver.New(&resolver.RequestBuilder{
			GraphURL:     viper.GetString("graph.url"),
			GraphVersion: viper.GetString("graph.version"),
			Idiom:        idiom,
			Tokens:       tokens,
		}, client, cache)
		if err != nil {
			return nil, err
		}
		return graph, nil
	case "web":
		web, err := webresolver.New(client, idiom)
		if err != nil {
			return nil, err
		}
		if cache == nil {
			return web, nil
		}
		return &resolver.Cached{Resolver: web, Cache: cache}, nil
	}
	return nil, fmt.Errorf("unknown resolver %q (available: auto, graph, web)", kind)
}

// parseDestination accepts absolute URLs only.
func parseDestination(raw string) (*url.URL, error) {
	u := applink.ParseURL(strings.TrimSpace(raw))
	if u == nil {
		return nil, fmt.Errorf("invalid url: %q", raw)
	}
	return u, nil
}

func printAppLink(link *applink.AppLink) {
	if link == nil {
		fmt.Println("  no app link")
		return
	}
	if src := link.SourceURL(); src != nil {
		fmt.Printf("  source: %s\n", src)
	}
	for i, t := range link.Targets() {
		target := "<none>"
		if t.URL != nil {
			target = t.URL.String()
		}
		fmt.Printf("  target %d: %s", i, target)
		if t.AppName != "" {
			fmt.Printf(" (%s)", t.AppName)
		}
		if t.AppStoreID != "" {
			fmt.Printf(" [app store id %s]", t.AppStoreID)
		}
		fmt.Println()
	}
	if web := link.WebURL(); web != nil {
		fmt.Printf("  web: %s\n", web)
	} else {
		fmt.Println("  web: <no fallback>")
	}
}
