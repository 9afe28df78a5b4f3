package cmd

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	"github.com/Laisky/zap"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"github.com/Laisky/envo-blog/internal/web/admin/workflow"
	"github.com/Laisky/envo-blog/internal/web/blog/dao"
	"github.com/Laisky/envo-blog/internal/web/blog/service"
	"github.com/Laisky/envo-blog/library/auth"
	"github.com/Laisky/envo-blog/library/config"
	"github.com/Laisky/envo-blog/library/db/docstore"
	"github.com/Laisky/envo-blog/library/db/firestore"
	"github.com/Laisky/envo-blog/library/db/memory"
	"github.com/Laisky/envo-blog/library/db/mongo"
	redisDB "github.com/Laisky/envo-blog/library/db/redis"
	"github.com/Laisky/envo-blog/library/jwt"
	"github.com/Laisky/envo-blog/library/log"
	"github.com/Laisky/envo-blog/library/throttle"
)

const (
	defaultSubscribeRatePerMinute = 6
	defaultLoginRatePerMinute     = 10
	workflowIdleTTL               = 2 * time.Hour
)

// openStore is replaced in tests.
var openStore = newStore

// deps holds the long-lived components shared by every subcommand.
type deps struct {
	store    docstore.Store
	redis    *redisDB.DB
	recorder workflow.Recorder

	sessions  *auth.Manager
	posts     *service.PostService
	subs      *service.SubscriberService
	views     *service.ViewService
	workflows *workflow.Registry
	covers    *dao.Covers

	subscribeLimit *throttle.KeyedThrottle
	loginLimit     *throttle.KeyedThrottle
}

// setupDeps connects the document store and builds the blog services.
func setupDeps(ctx context.Context) (*deps, error) {
	store, err := openStore(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "new document store")
	}

	d := &deps{store: store}

	blogDao := dao.New(log.Logger.Named("blog_dao"), d.store)
	d.posts = service.NewPostService(log.Logger.Named("posts"), blogDao)
	d.subs = service.NewSubscriberService(log.Logger.Named("subscribers"), blogDao)
	d.views = service.NewViewService(d.posts)

	return d, nil
}

// setupAdmin builds what the admin surfaces need on top of setupDeps:
// sessions, workflows, cover storage and request throttles.
func (d *deps) setupAdmin(ctx context.Context) (err error) {
	registry := auth.Registry(auth.NewMemoryRegistry(nil))
	if addr := strings.TrimSpace(gconfig.Shared.GetString("settings.db.redis.addr")); addr != "" {
		d.redis = redisDB.NewDB(&redis.Options{
			Addr:     addr,
			Password: gconfig.Shared.GetString("settings.db.redis.pwd"),
			DB:       gconfig.Shared.GetInt("settings.db.redis.db"),
		})
		if err = d.redis.Ping(ctx); err != nil {
			return errors.Wrap(err, "connect redis")
		}
		registry = d.redis
		d.recorder = d.redis
		log.Logger.Info("connected redis", zap.String("addr", addr))
	}

	if d.sessions, err = newSessions(registry); err != nil {
		return errors.Wrap(err, "new session manager")
	}

	d.workflows = workflow.NewRegistry(d.posts, d.recorder, log.Logger.Named("workflow"), workflowIdleTTL)

	if endpoint := strings.TrimSpace(gconfig.Shared.GetString("settings.storage.s3.endpoint")); endpoint != "" {
		if d.covers, err = dao.NewCovers(log.Logger.Named("covers"), dao.S3Config{
			Endpoint:  endpoint,
			AccessKey: gconfig.Shared.GetString("settings.storage.s3.access_key"),
			SecretKey: gconfig.Shared.GetString("settings.storage.s3.secret_key"),
			Bucket:    gconfig.Shared.GetString("settings.storage.s3.bucket"),
			Prefix:    gconfig.Shared.GetString("settings.storage.s3.prefix"),
			PublicURL: gconfig.Shared.GetString("settings.storage.s3.public_url"),
			Secure:    gconfig.Shared.GetBool("settings.storage.s3.secure"),
		}); err != nil {
			return errors.Wrap(err, "new cover storage")
		}
	}

	if d.subscribeLimit, err = throttle.NewKeyedThrottle(throttle.KeyedThrottleCfg{
		NPerMinute: config.IntOr("settings.web.subscribe_rate_per_minute", defaultSubscribeRatePerMinute),
		Burst:      3,
	}); err != nil {
		return errors.Wrap(err, "new subscribe throttle")
	}
	if d.loginLimit, err = throttle.NewKeyedThrottle(throttle.KeyedThrottleCfg{
		NPerMinute: config.IntOr("settings.web.login_rate_per_minute", defaultLoginRatePerMinute),
		Burst:      5,
	}); err != nil {
		return errors.Wrap(err, "new login throttle")
	}

	return nil
}

// Close releases the store and redis connections.
func (d *deps) Close(ctx context.Context) {
	if d.store != nil {
		if err := d.store.Close(ctx); err != nil {
			log.Logger.Warn("close document store", zap.Error(err))
		}
	}
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			log.Logger.Warn("close redis", zap.Error(err))
		}
	}
}

// newStore opens the backend named by settings.db.backend.
func newStore(ctx context.Context) (docstore.Store, error) {
	backend := config.StringOr("settings.db.backend", "firestore")
	logger := log.Logger.With(zap.String("backend", backend))

	switch backend {
	case "firestore":
		var opts []option.ClientOption
		if cred := gconfig.Shared.GetString("settings.db.firestore.credentials_file"); cred != "" {
			if !filepath.IsAbs(cred) {
				cred = filepath.Join(gconfig.Shared.GetString("cfg_dir"), cred)
			}
			opts = append(opts, option.WithCredentialsFile(cred))
		}

		db, err := firestore.NewDB(ctx, gconfig.Shared.GetString("settings.db.firestore.project_id"), opts...)
		if err != nil {
			return nil, errors.Wrap(err, "connect firestore")
		}
		logger.Info("connected firestore", zap.String("project", db.ProjectID()))
		return db, nil
	case "mongo":
		db, err := mongo.NewDB(ctx, mongo.DialInfo{
			Addr:   gconfig.Shared.GetString("settings.db.mongo.addr"),
			DBName: gconfig.Shared.GetString("settings.db.mongo.db"),
			User:   gconfig.Shared.GetString("settings.db.mongo.user"),
			Pwd:    gconfig.Shared.GetString("settings.db.mongo.pwd"),
			AuthDB: gconfig.Shared.GetString("settings.db.mongo.auth_db"),
		})
		if err != nil {
			return nil, errors.Wrap(err, "connect mongo")
		}
		logger.Info("connected mongodb")
		return db, nil
	case "memory":
		logger.Warn("documents are kept in memory and lost on exit")
		return memory.New(), nil
	default:
		return nil, errors.Errorf("unknown db backend %q", backend)
	}
}

// newSessions builds the session manager for settings.auth.provider.
func newSessions(registry auth.Registry) (*auth.Manager, error) {
	var (
		provider auth.Provider
		err      error
	)
	switch name := config.StringOr("settings.auth.provider", "firebase"); name {
	case "firebase":
		provider, err = auth.NewFirebaseProvider(gconfig.Shared.GetString("settings.auth.firebase.api_key"))
	case "static":
		var accounts []auth.Account
		if accounts, err = parseAccounts(gconfig.Shared.Get("settings.auth.users")); err == nil {
			provider, err = auth.NewStaticProvider(accounts)
		}
	default:
		err = errors.Errorf("unknown auth provider %q", name)
	}
	if err != nil {
		return nil, errors.Wrap(err, "new auth provider")
	}

	signer, err := jwt.NewSigner([]byte(gconfig.Shared.GetString("settings.secret")), nil)
	if err != nil {
		return nil, errors.Wrap(err, "new jwt signer")
	}

	ttl := time.Duration(config.IntOr("settings.auth.session_ttl_minutes", 0)) * time.Minute
	return auth.NewManager(provider, signer, registry, ttl)
}

// parseAccounts reads the settings.auth.users list.
func parseAccounts(raw any) ([]auth.Account, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, errors.New("settings.auth.users must be a list")
	}

	accounts := make([]auth.Account, 0, len(items))
	for i, item := range items {
		m := toStringMap(item)
		if m == nil {
			return nil, errors.Errorf("settings.auth.users[%d] must be an object", i)
		}

		email, _ := parseStrictString(m["email"])
		hash, _ := parseStrictString(m["password_hash"])
		disabled, _ := parseStrictBool(m["disabled"])
		accounts = append(accounts, auth.Account{
			Email:        email,
			PasswordHash: hash,
			Disabled:     disabled,
		})
	}

	return accounts, nil
}
