package profile

import "encoding/json"

const (
	// UnknownUser is the display name used when no name field is present.
	// A profile carrying it is not a login.
	UnknownUser = "未知用户"
	// PlaceholderAvatar is used when no avatar field is present.
	PlaceholderAvatar = "https://api.dicebear.com/7.x/avataaars/svg?seed=Unknown"

	WelcomeChinese = "欢迎使用飞书"
	WelcomeEnglish = "Welcome to Feishu"
	// WelcomeGeneric is the welcome text for an absent record.
	WelcomeGeneric = "欢迎使用"
)

// Candidate fields, highest priority first.
var (
	NameFields   = []string{"name", "en_name", "user_name", "display_name"}
	AvatarFields = []string{"avatar_url", "avatar", "picture"}
	TokenFields  = []string{"token", "access_token", "accessToken"}
)

// UserProfile is the normalized identity shown to the application.
type UserProfile struct {
	DisplayName string  `json:"name"`
	AvatarURL   string  `json:"avatar"`
	WelcomeText string  `json:"welcomeText"`
	RawData     Payload `json:"rawData"`
}

// IsValid reports whether the profile represents a real login.
func (u UserProfile) IsValid() bool {
	return u.DisplayName != "" && u.DisplayName != UnknownUser
}

// Token returns the credential carried in the raw record, if any.
func (u UserProfile) Token() (string, bool) {
	return u.RawData.Token()
}

// Normalize maps a raw record into a UserProfile. It never fails and never
// mutates raw.
func Normalize(raw Payload, lang string) UserProfile {
	if raw == nil {
		return UserProfile{
			DisplayName: UnknownUser,
			AvatarURL:   PlaceholderAvatar,
			WelcomeText: WelcomeGeneric,
		}
	}

	name, ok := raw.First(NameFields...)
	if !ok {
		name = UnknownUser
	}
	avatar, ok := raw.First(AvatarFields...)
	if !ok {
		avatar = PlaceholderAvatar
	}

	return UserProfile{
		DisplayName: name,
		AvatarURL:   avatar,
		WelcomeText: welcomeText(lang),
		RawData:     raw.Clone(),
	}
}

// NormalizeJSON decodes data and normalizes it. Undecodable input is treated
// as an absent record.
func NormalizeJSON(data []byte, lang string) UserProfile {
	var raw Payload
	if err := json.Unmarshal(data, &raw); err != nil {
		raw = nil
	}
	return Normalize(raw, lang)
}

// IsChinese reports whether lang selects the Chinese welcome text. Only the
// exact zh_CN and zh-CN tags qualify.
func IsChinese(lang string) bool {
	return lang == "zh_CN" || lang == "zh-CN"
}

func welcomeText(lang string) string {
	if IsChinese(lang) {
		return WelcomeChinese
	}
	return WelcomeEnglish
}
