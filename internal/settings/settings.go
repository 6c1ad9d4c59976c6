// Package settings provides the admin settings singleton consulted on
// every generation request. Settings live in a single database row;
// when the database is unreachable or a field is empty, each field
// falls back to its environment-variable value independently.
package settings

import "errors"

// ErrNotFound is returned when no settings row exists.
var ErrNotFound = errors.New("settings not found")

// Chapter count bounds enforced on resolve and update.
const (
	MinChapterCount = 1
	MaxChapterCount = 10
)

// DefaultSystemPrompt is the prompt template used when no template is
// stored or provided via environment. Placeholders {disease}, {symptom}
// and {additional_instructions} are substituted at generation time.
const DefaultSystemPrompt = `#Instruction: write a 10-minute meditation following the below structure. In that meditation, include elevenlabs tags such as [inhale], [exhale], [pause] or [whisper]. To not make it too fast paced, make sure to include a [pause 2 seconds] tag after each sentence. Using "..." also slows the pace down. Take the user inputs into account in the relevant parts of the meditation, as described. Avoid using "now" too much to progress the meditation forward.

#User input:
##Disease: {disease}
##Symptom: {symptom}
##Additional instruction: {additional_instructions}

#Output: output only the meditation itself with the relevant tags, without saying anything else or without including section titles

#Structure of the meditation with instructions for each section:
##Section 1: Introduction to the topic. The general topic is quantum healing. Tie in this general topic with the disease, symptom and additional instruction given by the user above. This part should be suitable for a meditation, yet scientific enough - without being too specific.

##Section 2: start of the meditation, settle the user. Choose any of common techniques to do so (e.g. focus on breath, senses, body, etc.). Leave some extra time/silence at the end of this section to allow the user to relax further in silence. End this section with the following tag: <break>

##Section 3: further relaxation. Choose any of common techniques to do so. Leave some extra time/silence at the end of this section to allow the user to relax further in silence. End this section with the following tag: <break>

##Section 4: visualisation. Introduce the visualisation technique, tie it to the disease, symptom and additional instruction of the user and to section 1 of the meditation and then start. Choose any of common visualisation techniques to do so.

##Section 5: end of meditation.`

// Settings is the resolved configuration used by the generation pipeline
// and the authentication layer.
type Settings struct {
	OpenAIAPIKey      string  `json:"openai_api_key"`
	OpenAIModel       string  `json:"openai_model"`
	ElevenLabsAPIKey  string  `json:"elevenlabs_api_key"`
	ElevenLabsModel   string  `json:"elevenlabs_model"`
	ElevenLabsVoiceID string  `json:"elevenlabs_voice_id"`
	ElevenLabsSpeed   float64 `json:"elevenlabs_speed"`
	SystemPrompt      string  `json:"system_prompt"`
	ChapterCount      int     `json:"chapter_count"`
	SilenceSeconds    int     `json:"silence_duration_seconds"`
	UserPassword      string  `json:"user_password"`
	AdminPassword     string  `json:"admin_password"`
}

// Patch describes a partial settings update. Nil fields are left unchanged.
type Patch struct {
	OpenAIAPIKey      *string  `json:"openai_api_key,omitempty"`
	OpenAIModel       *string  `json:"openai_model,omitempty"`
	ElevenLabsAPIKey  *string  `json:"elevenlabs_api_key,omitempty"`
	ElevenLabsModel   *string  `json:"elevenlabs_model,omitempty"`
	ElevenLabsVoiceID *string  `json:"elevenlabs_voice_id,omitempty"`
	ElevenLabsSpeed   *float64 `json:"elevenlabs_speed,omitempty"`
	SystemPrompt      *string  `json:"system_prompt,omitempty"`
	ChapterCount      *int     `json:"chapter_count,omitempty"`
	SilenceSeconds    *int     `json:"silence_duration_seconds,omitempty"`
	UserPassword      *string  `json:"user_password,omitempty"`
	AdminPassword     *string  `json:"admin_password,omitempty"`
}

// Apply returns a copy of s with the non-nil patch fields applied.
func (p Patch) Apply(s Settings) Settings {
	if p.OpenAIAPIKey != nil {
		s.OpenAIAPIKey = *p.OpenAIAPIKey
	}
	if p.OpenAIModel != nil {
		s.OpenAIModel = *p.OpenAIModel
	}
	if p.ElevenLabsAPIKey != nil {
		s.ElevenLabsAPIKey = *p.ElevenLabsAPIKey
	}
	if p.ElevenLabsModel != nil {
		s.ElevenLabsModel = *p.ElevenLabsModel
	}
	if p.ElevenLabsVoiceID != nil {
		s.ElevenLabsVoiceID = *p.ElevenLabsVoiceID
	}
	if p.ElevenLabsSpeed != nil {
		s.ElevenLabsSpeed = *p.ElevenLabsSpeed
	}
	if p.SystemPrompt != nil {
		s.SystemPrompt = *p.SystemPrompt
	}
	if p.ChapterCount != nil {
		s.ChapterCount = clampChapterCount(*p.ChapterCount)
	}
	if p.SilenceSeconds != nil && *p.SilenceSeconds >= 0 {
		s.SilenceSeconds = *p.SilenceSeconds
	}
	if p.UserPassword != nil {
		s.UserPassword = *p.UserPassword
	}
	if p.AdminPassword != nil {
		s.AdminPassword = *p.AdminPassword
	}
	return s
}

func clampChapterCount(n int) int {
	if n < MinChapterCount {
		return MinChapterCount
	}
	if n > MaxChapterCount {
		return MaxChapterCount
	}
	return n
}
