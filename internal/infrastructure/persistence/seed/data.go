package seed

import "github.com/learnquest/ledger/internal/domain/catalog"

// Challenges returns fresh copies of the demo challenges.
func Challenges() []*catalog.Challenge {
	return []*catalog.Challenge{
		{ID: "number-master", Title: "Number Master", Description: "Solve 10 maths problems correctly", XPReward: 150, Category: "learning", Difficulty: 2, DurationDays: 2, IsActive: true},
		{ID: "story-explorer", Title: "Story Explorer", Description: "Read a whole story and tell what you learned", XPReward: 120, Category: "learning", Difficulty: 1, DurationDays: 1, IsActive: true},
		{ID: "creative-artist", Title: "Creative Artist", Description: "Make a drawing or painting for your family", XPReward: 100, Category: "creativity", Difficulty: 1, DurationDays: 1, IsActive: true},
		{ID: "star-singer", Title: "Star Singer", Description: "Learn and sing a new song", XPReward: 130, Category: "creativity", Difficulty: 2, DurationDays: 2, IsActive: true},
		{ID: "super-athlete", Title: "Super Athlete", Description: "Exercise for 30 minutes a day", XPReward: 150, Category: "movement", Difficulty: 2, DurationDays: 1, IsActive: true},
		{ID: "happy-gymnast", Title: "Happy Gymnast", Description: "Practice fun jumps and stretches", XPReward: 110, Category: "movement", Difficulty: 1, DurationDays: 1, IsActive: true},
		{ID: "home-helper", Title: "Home Helper", Description: "Tidy your room and put your toys away", XPReward: 100, Category: "tasks", Difficulty: 1, DurationDays: 1, IsActive: true},
		{ID: "expert-organizer", Title: "Expert Organizer", Description: "Keep your desk tidy for a whole week", XPReward: 180, Category: "tasks", Difficulty: 3, DurationDays: 2, IsActive: true},
		{ID: "curious-scientist", Title: "Curious Scientist", Description: "Observe and draw 5 interesting things in nature", XPReward: 140, Category: "science", Difficulty: 2, DurationDays: 2, IsActive: true},
		{ID: "nature-explorer", Title: "Nature Explorer", Description: "Plant a seed and look after it every day", XPReward: 200, Category: "science", Difficulty: 3, DurationDays: 2, IsActive: true},
	}
}

// Rewards returns fresh copies of the demo rewards.
func Rewards() []*catalog.Reward {
	return []*catalog.Reward{
		{ID: "ice-cream", Title: "Ice Cream", Description: "Pick your favourite flavour", PointsRequired: 250, Category: "treat", IsActive: true},
		{ID: "extra-game-time", Title: "15 Extra Minutes of Games", Description: "More time for your favourite video games", PointsRequired: 300, Category: "screen-time", IsActive: true},
		{ID: "choose-dinner", Title: "Choose Dinner", Description: "You decide what the family eats tonight", PointsRequired: 400, Category: "privilege", IsActive: true},
		{ID: "sticker-kit", Title: "Sticker Kit", Description: "A new set of fun stickers", PointsRequired: 500, Category: "item", IsActive: true},
		{ID: "new-book", Title: "New Book", Description: "Visit the bookshop and pick a book you like", PointsRequired: 700, Category: "educational", IsActive: true},
		{ID: "movie-night", Title: "Family Movie Night", Description: "Movie night with popcorn and the whole family", PointsRequired: 800, Category: "activity", IsActive: true},
		{ID: "board-game", Title: "New Board Game", Description: "A fun board game for the whole family", PointsRequired: 1000, Category: "item", IsActive: true},
		{ID: "art-kit", Title: "Art Kit", Description: "Colours, paints and more", PointsRequired: 1200, Category: "item", IsActive: true},
		{ID: "special-toy", Title: "Special Toy", Description: "The toy you have been wishing for", PointsRequired: 1500, Category: "item", IsActive: true},
		{ID: "park-day", Title: "Day at the Park", Description: "A fun day at the amusement park", PointsRequired: 1800, Category: "activity", IsActive: true},
		{ID: "special-class", Title: "Special Class", Description: "A class in your favourite activity", PointsRequired: 2000, Category: "educational", IsActive: true},
	}
}

// Achievements returns fresh copies of the demo achievements.
func Achievements() []*catalog.Achievement {
	return []*catalog.Achievement{
		{ID: "first-star", Title: "First Star", Description: "Completed your first challenge", Icon: "star", XPReward: 50, Rarity: catalog.RarityCommon},
		{ID: "organizer", Title: "Organizer", Description: "Kept your space tidy for a week", Icon: "clipboard", XPReward: 75, Rarity: catalog.RarityCommon},
		{ID: "focused", Title: "Focused", Description: "Answered 10 questions correctly", Icon: "target", XPReward: 100, Rarity: catalog.RarityCommon},
		{ID: "brainiac", Title: "Brainiac", Description: "Completed 5 learning challenges", Icon: "brain", XPReward: 150, Rarity: catalog.RarityRare},
		{ID: "great-artist", Title: "Great Artist", Description: "Completed every creativity challenge", Icon: "palette", XPReward: 175, Rarity: catalog.RarityRare},
		{ID: "super-active", Title: "Super Active", Description: "Completed 5 movement challenges", Icon: "muscle", XPReward: 150, Rarity: catalog.RarityRare},
		{ID: "bright-student", Title: "Bright Student", Description: "Reached level 5", Icon: "glowing-star", XPReward: 200, Rarity: catalog.RarityRare},
		{ID: "fire-streak", Title: "Fire Streak", Description: "Kept a 7 day streak", Icon: "fire", XPReward: 250, Rarity: catalog.RarityEpic},
		{ID: "day-champion", Title: "Champion of the Day", Description: "Completed 3 challenges in one day", Icon: "trophy", XPReward: 300, Rarity: catalog.RarityEpic},
		{ID: "knowledge-master", Title: "Knowledge Master", Description: "Answered 50 questions correctly", Icon: "graduation-cap", XPReward: 350, Rarity: catalog.RarityEpic},
		{ID: "golden-legend", Title: "Golden Legend", Description: "Reached level 10 and completed 20 challenges", Icon: "crown", XPReward: 500, Rarity: catalog.RarityLegendary},
		{ID: "supreme-collector", Title: "Supreme Collector", Description: "Unlocked every other achievement", Icon: "gem", XPReward: 1000, Rarity: catalog.RarityLegendary},
	}
}

// Questions returns fresh copies of the demo quiz questions.
func Questions() []*catalog.Question {
	return []*catalog.Question{
		{ID: "maths-01", Subject: "maths", Text: "What is 2 + 3?", Options: []string{"4", "5", "6", "7"}, CorrectAnswer: 1, XPReward: 10, Difficulty: 1},
		{ID: "maths-02", Subject: "maths", Text: "You have 5 apples and eat 2. How many are left?", Options: []string{"2", "3", "4", "5"}, CorrectAnswer: 1, XPReward: 15, Difficulty: 1},
		{ID: "maths-03", Subject: "maths", Text: "What is 10 - 4?", Options: []string{"5", "6", "7", "8"}, CorrectAnswer: 1, XPReward: 10, Difficulty: 1},
		{ID: "maths-04", Subject: "maths", Text: "What is 6 + 6?", Options: []string{"10", "11", "12", "13"}, CorrectAnswer: 2, XPReward: 15, Difficulty: 2},
		{ID: "maths-05", Subject: "maths", Text: "What is double 4?", Options: []string{"6", "7", "8", "9"}, CorrectAnswer: 2, XPReward: 20, Difficulty: 2},
		{ID: "maths-06", Subject: "maths", Text: "How many legs do 2 dogs have?", Options: []string{"4", "6", "8", "10"}, CorrectAnswer: 2, XPReward: 15, Difficulty: 1},
		{ID: "maths-07", Subject: "maths", Text: "What is half of 10?", Options: []string{"3", "4", "5", "6"}, CorrectAnswer: 2, XPReward: 20, Difficulty: 2},
		{ID: "maths-08", Subject: "maths", Text: "What is 7 + 8?", Options: []string{"13", "14", "15", "16"}, CorrectAnswer: 2, XPReward: 20, Difficulty: 2},
		{ID: "english-01", Subject: "english", Text: "Which word names a dog?", Options: []string{"Cat", "Dog", "Bird", "Fish"}, CorrectAnswer: 1, XPReward: 10, Difficulty: 1},
		{ID: "english-02", Subject: "english", Text: "Which one is a colour?", Options: []string{"Table", "Red", "Run", "Happy"}, CorrectAnswer: 1, XPReward: 10, Difficulty: 1},
		{ID: "english-03", Subject: "english", Text: "Which one is a fruit?", Options: []string{"Chair", "Pen", "Apple", "Shoe"}, CorrectAnswer: 2, XPReward: 10, Difficulty: 1},
		{ID: "english-04", Subject: "english", Text: "What do you drink when you are thirsty?", Options: []string{"Water", "Paper", "Sand", "Glue"}, CorrectAnswer: 0, XPReward: 10, Difficulty: 1},
		{ID: "english-05", Subject: "english", Text: "Which word means the opposite of 'sad'?", Options: []string{"Tired", "Happy", "Angry", "Slow"}, CorrectAnswer: 1, XPReward: 15, Difficulty: 2},
		{ID: "english-06", Subject: "english", Text: "Which word is an action?", Options: []string{"Blue", "Book", "Run", "Big"}, CorrectAnswer: 2, XPReward: 20, Difficulty: 2},
	}
}
