package sequencer

import "github.com/godlykids/journey/internal/domain"

// Daily session step tags, in flow order.
const (
	StepScripture  domain.StepTag = "scripture"
	StepBook       domain.StepTag = "book"
	StepDiscussion domain.StepTag = "discussion"
	StepPrayer     domain.StepTag = "prayer"
)

// Onboarding tutorial step tags, in flow order.
const (
	TutWelcome         domain.StepTag = "welcome"
	TutChooseTopics    domain.StepTag = "choose_topics"
	TutTopicsConfirm   domain.StepTag = "topics_confirm"
	TutAvatarIntro     domain.StepTag = "avatar_intro"
	TutAvatarCustomize domain.StepTag = "avatar_customize"
	TutAvatarSaved     domain.StepTag = "avatar_saved"
	TutHomeTour        domain.StepTag = "home_tour"
	TutStreakHighlight domain.StepTag = "streak_highlight"
	TutSessionIntro    domain.StepTag = "session_intro"
	TutScriptureIntro  domain.StepTag = "scripture_intro"
	TutScripturePuzzle domain.StepTag = "scripture_puzzle"
	TutPuzzleHint      domain.StepTag = "puzzle_hint"
	TutBookIntro       domain.StepTag = "book_intro"
	TutBookPageOne     domain.StepTag = "book_page_1"
	TutBookPageTwo     domain.StepTag = "book_page_2"
	TutBookPageThree   domain.StepTag = "book_page_3"
	TutBookFinished    domain.StepTag = "book_finished"
	TutDiscussionIntro domain.StepTag = "discussion_intro"
	TutDiscussionTry   domain.StepTag = "discussion_try"
	TutPrayerIntro     domain.StepTag = "prayer_intro"
	TutPrayerMoment    domain.StepTag = "prayer_moment"
	TutQuizIntro       domain.StepTag = "quiz_intro"
	TutQuizInProgress  domain.StepTag = "quiz_in_progress"
	TutCoinsHighlight  domain.StepTag = "coins_highlight"
	TutShopTour        domain.StepTag = "shop_tour"
	TutPaywall         domain.StepTag = "paywall"
)

// DailySession returns the built-in 4-step daily session catalog
// (scripture puzzle, story book, discussion, prayer).
func DailySession() *Catalog {
	c, err := NewCatalog("daily_session", []domain.Step{
		{Tag: StepScripture, Title: "Scripture Puzzle", Description: "Put today's verse back together", DefaultReward: 10},
		{Tag: StepBook, Title: "Story Time", Description: "Read today's story", DefaultReward: 30},
		{Tag: StepDiscussion, Title: "Let's Talk", Description: "Answer a question about the story", DefaultReward: 20},
		{Tag: StepPrayer, Title: "Prayer", Description: "Close with a prayer", DefaultReward: 30},
	})
	if err != nil {
		panic("sequencer: built-in daily session catalog invalid: " + err.Error())
	}
	return c
}

// Tutorial returns the built-in 26-step onboarding tutorial catalog. Steps
// with an auto-advance delay move on their own; steps flagged requires_click
// wait for an explicit tap on the highlighted target.
func Tutorial() *Catalog {
	c, err := NewCatalog("tutorial", []domain.Step{
		{Tag: TutWelcome, Title: "Welcome to GodlyKids!", AutoAdvanceMS: 4000},
		{Tag: TutChooseTopics, Title: "Pick your topics", Target: "topic-grid"},
		{Tag: TutTopicsConfirm, Title: "Great choices!", Target: "topic-confirm", RequiresClick: true},
		{Tag: TutAvatarIntro, Title: "Meet your buddy", AutoAdvanceMS: 3500},
		{Tag: TutAvatarCustomize, Title: "Make it yours", Target: "avatar-editor"},
		{Tag: TutAvatarSaved, Title: "Looking good!", AutoAdvanceMS: 2500},
		{Tag: TutHomeTour, Title: "This is your home", Target: "home-screen", AutoAdvanceMS: 4000},
		{Tag: TutStreakHighlight, Title: "Come back every day", Target: "streak-badge", AutoAdvanceMS: 3000},
		{Tag: TutSessionIntro, Title: "Start your first session", Target: "session-button", RequiresClick: true},
		{Tag: TutScriptureIntro, Title: "First, a puzzle", AutoAdvanceMS: 3500},
		{Tag: TutScripturePuzzle, Title: "Drag the words in order", Target: "puzzle-board"},
		{Tag: TutPuzzleHint, Title: "Stuck? Tap a tile for a hint", Target: "puzzle-hint", AutoAdvanceMS: 5000},
		{Tag: TutBookIntro, Title: "Story time!", AutoAdvanceMS: 3000},
		{Tag: TutBookPageOne, Title: "Swipe to turn the page", Target: "book-page"},
		{Tag: TutBookPageTwo, Title: "Keep going", Target: "book-page"},
		{Tag: TutBookPageThree, Title: "One more page", Target: "book-page"},
		{Tag: TutBookFinished, Title: "You finished the story!", AutoAdvanceMS: 2500},
		{Tag: TutDiscussionIntro, Title: "Let's talk about it", Target: "discussion-card", RequiresClick: true},
		{Tag: TutDiscussionTry, Title: "Tap an answer", Target: "discussion-answers"},
		{Tag: TutPrayerIntro, Title: "Time to pray", AutoAdvanceMS: 3000},
		{Tag: TutPrayerMoment, Title: "Repeat after me", Target: "prayer-card"},
		{Tag: TutQuizIntro, Title: "Quick quiz!", Target: "quiz-start", RequiresClick: true},
		{Tag: TutQuizInProgress, Title: "Answer the questions", Target: "quiz-board"},
		{Tag: TutCoinsHighlight, Title: "You earned coins!", Target: "coin-counter", AutoAdvanceMS: 4000},
		{Tag: TutShopTour, Title: "Spend them in the shop", Target: "shop-button", RequiresClick: true},
		{Tag: TutPaywall, Title: "Unlock everything", Target: "paywall-card", RequiresClick: true},
	})
	if err != nil {
		panic("sequencer: built-in tutorial catalog invalid: " + err.Error())
	}
	return c
}

// bookPageSteps is the sub-range of tutorial steps a page swipe advances.
var bookPageSteps = map[domain.StepTag]bool{
	TutBookPageOne:   true,
	TutBookPageTwo:   true,
	TutBookPageThree: true,
}

// IsBookPageStep reports whether the tag is inside the tutorial's
// swipe-to-advance book sub-range.
func IsBookPageStep(tag domain.StepTag) bool {
	return bookPageSteps[tag]
}
