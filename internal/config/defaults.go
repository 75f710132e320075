package config

const (
	defaultBind                = "127.0.0.1:10000"
	defaultCORSOrigin          = "*"
	defaultLockPath            = "~/.local/state/captionrelay/captionrelay.lock"
	defaultReadTimeoutSeconds  = 10
	defaultWriteTimeoutSeconds = 30
	defaultRequestTimeout      = 5
	defaultUserAgent           = "captionrelay/dev"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultConfigLocation      = "~/.config/captionrelay/config.toml"
	projectConfigName          = "captionrelay.toml"
)

// defaultEndpoints is the built-in mirror list, tried top to bottom.
func defaultEndpoints() []Endpoint {
	return []Endpoint{
		{URL: "https://pipedapi.kavin.rocks", Kind: "piped"},
		{URL: "https://pipedapi.adminforge.de", Kind: "piped"},
		{URL: "https://inv.nadeko.net", Kind: "invidious"},
		{URL: "https://invidious.nerdvpn.de", Kind: "invidious"},
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Bind:                defaultBind,
			CORSOrigin:          defaultCORSOrigin,
			LockPath:            defaultLockPath,
			ReadTimeoutSeconds:  defaultReadTimeoutSeconds,
			WriteTimeoutSeconds: defaultWriteTimeoutSeconds,
		},
		Upstream: Upstream{
			RequestTimeoutSeconds: defaultRequestTimeout,
			UserAgent:             defaultUserAgent,
		},
		EndpointList: defaultEndpoints(),
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
