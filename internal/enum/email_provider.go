package enum

// EmailProvider is the tenant's preferred delivery channel.
type EmailProvider string

const (
	EmailProviderRelay     EmailProvider = "relay"
	EmailProviderHostedAPI EmailProvider = "hosted-api"
)

func (t EmailProvider) String() string {
	return string(t)
}

// GetEmailProvider accepts the legacy "gmail"/"resend" values stored by older profiles.
func GetEmailProvider(s string) EmailProvider {
	switch s {
	case "relay", "gmail", "smtp":
		return EmailProviderRelay
	default:
		return EmailProviderHostedAPI
	}
}

type TransportChannel string

const (
	TransportChannelRelay     TransportChannel = "relay-smtp"
	TransportChannelHostedAPI TransportChannel = "hosted-api"
)

func (t TransportChannel) String() string {
	return string(t)
}
