package content

import (
	"strings"

	"github.com/godlykids/journey/internal/domain"
)

// Built-in fallback content. Small on purpose: just enough for every step
// of the flow to proceed when the backend is down.

var fallbackBooks = []domain.Book{
	{ID: "fb-book-noah", Title: "Noah Builds a Boat", Topic: "obedience", PageCount: 8, MinAge: 4, MaxAge: 8},
	{ID: "fb-book-david", Title: "David the Brave", Topic: "courage", PageCount: 10, MinAge: 5, MaxAge: 9},
	{ID: "fb-book-samaritan", Title: "The Kind Stranger", Topic: "kindness", PageCount: 8, MinAge: 4, MaxAge: 8},
	{ID: "fb-book-lost-sheep", Title: "The Lost Little Sheep", Topic: "love", PageCount: 6, MinAge: 3, MaxAge: 7},
}

var fallbackLessons = []domain.Lesson{
	{ID: "fb-lesson-kind", Title: "Be Kind", Topic: "kindness", Reference: "Ephesians 4:32", Verse: "Be kind and compassionate to one another."},
	{ID: "fb-lesson-strong", Title: "Be Strong", Topic: "courage", Reference: "Joshua 1:9", Verse: "Be strong and courageous."},
	{ID: "fb-lesson-love", Title: "Love One Another", Topic: "love", Reference: "John 13:34", Verse: "Love one another, as I have loved you."},
	{ID: "fb-lesson-trust", Title: "Trust the Lord", Topic: "obedience", Reference: "Proverbs 3:5", Verse: "Trust in the Lord with all your heart."},
}

var fallbackVoices = []domain.Voice{
	{ID: "fb-voice-grace", Name: "Grace", Language: "en"},
	{ID: "fb-voice-sam", Name: "Sam", Language: "en"},
}

var fallbackCampaigns = []domain.Campaign{
	{ID: "fb-campaign-wells", Title: "Clean Water Wells", Description: "Help build wells for villages without clean water.", GoalCoins: 50000},
	{ID: "fb-campaign-bibles", Title: "Bibles for Kids", Description: "Send storybook Bibles to children around the world.", GoalCoins: 25000},
}

var fallbackQuestions = []string{
	"What was your favorite part of the story?",
	"How do you think the people in the story felt?",
	"What would you have done?",
	"How can you do something like that this week?",
	"Who could you share this story with?",
}

// FallbackBooks returns the built-in books, preferring topic matches.
func FallbackBooks(topic string) []domain.Book {
	if topic == "" {
		return append([]domain.Book(nil), fallbackBooks...)
	}
	var matched []domain.Book
	for _, b := range fallbackBooks {
		if strings.EqualFold(b.Topic, topic) {
			matched = append(matched, b)
		}
	}
	if len(matched) == 0 {
		return append([]domain.Book(nil), fallbackBooks...)
	}
	return matched
}

// FallbackLessons returns the built-in lessons, preferring topic matches.
func FallbackLessons(topic string) []domain.Lesson {
	if topic == "" {
		return append([]domain.Lesson(nil), fallbackLessons...)
	}
	var matched []domain.Lesson
	for _, l := range fallbackLessons {
		if strings.EqualFold(l.Topic, topic) {
			matched = append(matched, l)
		}
	}
	if len(matched) == 0 {
		return append([]domain.Lesson(nil), fallbackLessons...)
	}
	return matched
}

// FallbackVoices returns the built-in narration voices.
func FallbackVoices() []domain.Voice {
	return append([]domain.Voice(nil), fallbackVoices...)
}

// FallbackCampaigns returns the built-in giving campaigns.
func FallbackCampaigns() []domain.Campaign {
	return append([]domain.Campaign(nil), fallbackCampaigns...)
}

// FallbackQuestions returns up to max built-in discussion questions.
func FallbackQuestions(topic string, max int) []string {
	questions := append([]string(nil), fallbackQuestions...)
	if topic != "" {
		questions[0] = "What did the story about " + topic + " teach you?"
	}
	if max > 0 && len(questions) > max {
		questions = questions[:max]
	}
	return questions
}
