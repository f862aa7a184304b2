package tts

import "strings"

const (
	// VoiceNamMinh is the default Vietnamese male voice.
	VoiceNamMinh = "vi-VN-NamMinhNeural"

	// VoiceHoaiMy is the Vietnamese female voice.
	VoiceHoaiMy = "vi-VN-HoaiMyNeural"

	// AliasNam and AliasHoaiMy are the short names chat clients send.
	AliasNam    = "nam"
	AliasHoaiMy = "hoai_my"
)

var voiceAliases = map[string]string{
	AliasNam:    VoiceNamMinh,
	AliasHoaiMy: VoiceHoaiMy,
}

// ResolveVoice maps a short alias to its full voice name. Empty names resolve
// to def; unknown names are passed through unchanged.
func ResolveVoice(name, def string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return def
	}
	if full, ok := voiceAliases[strings.ToLower(name)]; ok {
		return full
	}
	return name
}

// VoiceForLanguage picks the alias a chat client requests for a BCP 47
// language tag: the male voice for Vietnamese, the female one otherwise.
func VoiceForLanguage(lang string) string {
	if strings.EqualFold(lang, "vi-VN") {
		return AliasNam
	}
	return AliasHoaiMy
}
