// Package mongo is the MongoDB docstore backend.
package mongo

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Laisky/envo-blog/library/db/docstore"
	"github.com/Laisky/envo-blog/library/log"
)

const defaultTimeout = 30 * time.Second

// DialInfo defines the MongoDB connection information.
type DialInfo struct {
	Addr,
	DBName,
	User,
	Pwd string
	AuthDB string
}

// DB is a docstore.Store over one mongo database.
type DB struct {
	cli      *mongo.Client
	dialInfo DialInfo

	// uniqueIndexes records "collection.field" keys whose unique index exists.
	uniqueIndexes sync.Map
}

var (
	connectMongo = func(ctx context.Context, clientOpts *options.ClientOptions) (*mongo.Client, error) {
		return mongo.Connect(ctx, clientOpts)
	}
	pingMongo = func(ctx context.Context, cli *mongo.Client) error {
		return cli.Ping(ctx, readpref.Primary())
	}
	disconnectMongo = func(ctx context.Context, cli *mongo.Client) error {
		return cli.Disconnect(ctx)
	}
)

// buildMongoURI builds a MongoDB connection URI from the given dial info.
func buildMongoURI(dialInfo DialInfo) string {
	uri := &url.URL{
		Scheme: "mongodb",
		Host:   dialInfo.Addr,
		Path:   "/" + dialInfo.DBName,
	}
	if dialInfo.User != "" || dialInfo.Pwd != "" {
		uri.User = url.UserPassword(dialInfo.User, dialInfo.Pwd)
	}
	if dialInfo.AuthDB != "" {
		query := url.Values{}
		query.Set("authSource", dialInfo.AuthDB)
		uri.RawQuery = query.Encode()
	}
	return uri.String()
}

// NewDB connects and pings the server, so a bad address fails at startup
// rather than on the first request.
func NewDB(ctx context.Context, dialInfo DialInfo) (*DB, error) {
	if dialInfo.Addr == "" || dialInfo.DBName == "" {
		return nil, errors.New("mongo addr and db name are required")
	}

	log.Logger.Info("try to connect to mongodb",
		zap.String("addr", dialInfo.Addr),
		zap.String("db", dialInfo.DBName),
	)

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(buildMongoURI(dialInfo)).
		SetConnectTimeout(defaultTimeout).
		SetServerSelectionTimeout(defaultTimeout).
		SetRetryReads(true).
		SetRetryWrites(true).
		SetMaxPoolSize(50)

	cli, err := connectMongo(ctx, clientOpts)
	if err != nil {
		return nil, errors.Wrap(err, "connect db")
	}

	if err := pingMongo(ctx, cli); err != nil {
		_ = disconnectMongo(context.Background(), cli)
		return nil, errors.Wrap(err, "ping db")
	}

	return &DB{cli: cli, dialInfo: dialInfo}, nil
}

// Collection returns a handle on the named collection of the configured database.
func (d *DB) Collection(name string) docstore.Collection {
	return &collection{
		db:  d,
		col: d.cli.Database(d.dialInfo.DBName).Collection(name),
	}
}

// Close disconnects the client.
func (d *DB) Close(ctx context.Context) error {
	if d.cli == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	closeCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return errors.Wrap(disconnectMongo(closeCtx, d.cli), "disconnect mongo")
}
