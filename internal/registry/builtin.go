package registry

import "github.com/hamed0406/integrationprobe/internal/probe"

// Fixed upstreams of the dual Graph check.
const (
	MicrosoftGraphURL = "https://graph.microsoft.com/v1.0/"
	MetaGraphURL      = "https://graph.facebook.com/"
)

// Builtin is the compiled-in integration table. Adding an integration means
// adding a row here.
func Builtin() []Entry {
	return []Entry{
		{
			ID:       "smpp",
			Name:     "SMPP Gateway",
			Strategy: TCPStrategy{HostKeys: []string{"host"}, PortKey: "port", DefaultHost: "localhost", DefaultPort: 2775},
			Details: Templates{
				Success: "SMPP port reachable at {target}. Login will require system_id + password authentication",
				Failure: "Check that the SMSC accepts connections from this host",
			},
		},
		{
			ID:       "smtp",
			Name:     "SMTP Relay",
			Strategy: TCPStrategy{HostKeys: []string{"host"}, PortKey: "port", DefaultHost: "localhost", DefaultPort: 587},
			Details: Templates{
				Success: "SMTP relay reachable at {target}. Sending will require STARTTLS then SMTP AUTH (username + password)",
				Failure: "Check relay host, submission port and firewall rules",
			},
		},
		{
			ID:       "ldap",
			Name:     "LDAP Directory",
			Strategy: TCPStrategy{HostKeys: []string{"host"}, PortKey: "port", DefaultHost: "localhost", DefaultPort: 636},
			Details: Templates{
				Success: "LDAP directory reachable at {target}. Queries will require a bind DN + password over LDAPS",
				Failure: "Check directory host and LDAPS port",
			},
		},
		{
			ID:       "sip",
			Name:     "SIP Proxy",
			Strategy: TCPStrategy{HostKeys: []string{"sip_proxy", "host"}, PortKey: "port", DefaultHost: "localhost", DefaultPort: 5060},
			Details: Templates{
				Success: "SIP proxy reachable at {target}. Calls will require REGISTER with digest authentication",
				Failure: "Check proxy address; UDP-only proxies cannot be verified over TCP",
			},
		},
		{
			ID:       "rcs",
			Name:     "RCS Gateway",
			Strategy: HTTPStrategy{URLKeys: []string{"base_url", "url"}, DefaultURL: "https://rcsbusinessmessaging.googleapis.com/"},
			Details: Templates{
				Success: "RCS gateway reachable (HTTP {status}). Messaging will require an agent ID + service account token",
			},
		},
		{
			ID:       "rest-api",
			Name:     "REST API",
			Strategy: HTTPStrategy{URLKeys: []string{"base_url", "url", "token_url"}},
			Details: Templates{
				Success: "API reachable at {target} (HTTP {status}). Requests will require an OAuth access token from the token endpoint",
			},
		},
		{
			ID:       "oauth",
			Name:     "OAuth Provider",
			Strategy: HTTPStrategy{URLKeys: []string{"token_url", "base_url"}},
			Details: Templates{
				Success: "Token endpoint reachable (HTTP {status}). Client ID + secret will be exchanged for an OAuth access token",
			},
		},
		{
			ID:       "microsoft-graph",
			Name:     "Microsoft Graph",
			Strategy: HTTPStrategy{URLKeys: []string{"base_url"}, DefaultURL: MicrosoftGraphURL},
			Details: Templates{
				Success: "Microsoft Graph reachable (HTTP {status}). Calls will require an Azure AD app token (client credentials)",
			},
		},
		{
			ID:       "meta-graph",
			Name:     "Meta Graph",
			Strategy: HTTPStrategy{URLKeys: []string{"base_url"}, DefaultURL: MetaGraphURL},
			Details: Templates{
				Success: "Meta Graph reachable (HTTP {status}). Calls will require a system user access token",
			},
		},
		{
			ID:   "graph-api",
			Name: "Graph APIs",
			Strategy: CompositeStrategy{
				Endpoints: []Endpoint{
					{Label: "Microsoft Graph", URL: MicrosoftGraphURL},
					{Label: "Meta Graph", URL: MetaGraphURL},
				},
				Policy: probe.MergeAny,
			},
			Details: Templates{
				Success: "{results}. Each provider will require its own OAuth access token",
			},
		},
		{
			ID:       "postman",
			Name:     "Postman API",
			Strategy: HTTPStrategy{URLKeys: []string{"base_url"}, DefaultURL: "https://api.getpostman.com/"},
			Details: Templates{
				Success: "Postman API reachable (HTTP {status}). Requests will require an X-Api-Key header",
			},
		},
		{
			ID:       "webrtc",
			Name:     "WebRTC Signaling",
			Strategy: HTTPStrategy{URLKeys: []string{"signaling", "base_url"}},
			Details: Templates{
				Success: "Signaling server reachable at {target} (HTTP {status}). ICE/STUN/TURN negotiation is deferred to call setup",
			},
		},
		{
			ID:       "bss-oss",
			Name:     "BSS/OSS",
			Strategy: HTTPStrategy{URLKeys: []string{"bss_endpoint", "oss_endpoint", "base_url"}},
			Details: Templates{
				Success: "BSS/OSS endpoint reachable at {target} (HTTP {status}). Calls will require operator API credentials",
			},
		},
	}
}

// Default returns a registry holding the builtin table.
func Default() *Registry {
	r, err := New(Builtin()...)
	if err != nil {
		panic("registry: builtin table invalid: " + err.Error())
	}
	return r
}
