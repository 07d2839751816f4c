// Package useragent issues HTTP/1.1 calls that follow redirects, retry
// recoverable failures, keep cookies, validate status codes and decode
// compressed bodies, over pooled keep-alive connections.
//
//	ua, err := useragent.New(useragent.WithCookieJar(useragent.NewCookieJar()))
//	if err != nil {
//		return err
//	}
//	body, err := ua.IssueContent(ctx, "http://example.com/")
package useragent

import (
	"github.com/frankli0324/go-useragent/internal"
	"github.com/frankli0324/go-useragent/internal/config"
	"github.com/frankli0324/go-useragent/internal/useragent"
)

type (
	UserAgent  = useragent.UserAgent
	Config     = useragent.Config
	Option     = useragent.Option
	CallOption = useragent.CallOption

	Request  = useragent.Request
	Response = useragent.Response
	Header   = useragent.Header
	Field    = useragent.Field
	URL      = useragent.URL

	Pool              = useragent.Pool
	HostClient        = useragent.HostClient
	RawResponse       = useragent.RawResponse
	PoolConfig        = useragent.PoolConfig
	ClientPool        = useragent.ClientPool
	CookieJar         = useragent.CookieJar
	Classifier        = useragent.Classifier
	RedirectLimitFunc = useragent.RedirectLimitFunc
	Metrics           = useragent.Metrics

	ConnectionError = useragent.ConnectionError
	BadStatusCode   = useragent.BadStatusCode
	RetriesExceeded = useragent.RetriesExceeded
	DecodeError     = useragent.DecodeError
)

// the low level client behind ClientPool and its middlewares.
type (
	Client     = internal.Client
	Middleware = internal.Middleware
	Handler    = internal.Handler
)

const (
	Version           = useragent.Version
	DownloadChunkSize = useragent.DownloadChunkSize
)

var (
	ErrRedirectLimit        = useragent.ErrRedirectLimit
	ErrBodyConsumed         = useragent.ErrBodyConsumed
	ErrMultipartUnsupported = useragent.ErrMultipartUnsupported
)

var (
	New           = useragent.New
	NewFromConfig = useragent.NewFromConfig
	DefaultConfig = useragent.DefaultConfig
	NewPool       = useragent.NewPool
	NewCookieJar  = useragent.NewCookieJar
	NewMetrics    = useragent.NewMetrics

	ParseURL        = useragent.ParseURL
	ResolveRedirect = useragent.ResolveRedirect
	HeaderFromMap   = useragent.HeaderFromMap
	DefaultHeaders  = useragent.DefaultHeaders

	IsTimeout         = useragent.IsTimeout
	DefaultClassifier = useragent.DefaultClassifier
	RetryStatusCodes  = useragent.RetryStatusCodes

	RateLimit = useragent.RateLimit
	RequestID = useragent.RequestID
)

var (
	WithMaxRedirects       = useragent.WithMaxRedirects
	WithMaxRetries         = useragent.WithMaxRetries
	WithRetryDelay         = useragent.WithRetryDelay
	WithBackOff            = useragent.WithBackOff
	WithTimeout            = useragent.WithTimeout
	WithValidStatusCodes   = useragent.WithValidStatusCodes
	WithDefaultHeaders     = useragent.WithDefaultHeaders
	WithCookieJar          = useragent.WithCookieJar
	WithPool               = useragent.WithPool
	WithClassifier         = useragent.WithClassifier
	WithRedirectLimitError = useragent.WithRedirectLimitError
	WithLogger             = useragent.WithLogger
	WithMetrics            = useragent.WithMetrics
	WithTracerProvider     = useragent.WithTracerProvider

	WithMethod        = useragent.WithMethod
	WithHeaders       = useragent.WithHeaders
	WithHeader        = useragent.WithHeader
	WithPayload       = useragent.WithPayload
	WithFields        = useragent.WithFields
	WithResponseCodes = useragent.WithResponseCodes
)

// LoadConfig reads the config from defaults, the YAML file at path when not
// empty, and USERAGENT_* environment variables.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
