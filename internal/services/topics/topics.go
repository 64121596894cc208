package topics

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mcoot/rankparty/internal/dependencies/random"
	"github.com/mcoot/rankparty/internal/model"
)

// Service picks round categories from a fixed list
type Service struct {
	random random.Random
	topics []string
}

// New creates a topic service over the given list, falling back to the built-in list when empty
func New(random random.Random, topics []string) *Service {
	if len(topics) == 0 {
		topics = Default()
	}
	return &Service{
		random: random,
		topics: append([]string(nil), topics...),
	}
}

// Pick returns a uniformly random topic
func (s *Service) Pick() string {
	if len(s.topics) == 0 {
		return model.FallbackCategoryName
	}
	topic := s.topics[s.random.Intn(len(s.topics))]
	if topic == "" {
		return model.FallbackCategoryName
	}
	return topic
}

// Len returns the number of available topics
func (s *Service) Len() int {
	return len(s.topics)
}

// LoadFile reads one topic per line, skipping blanks and lines starting with '#'
func LoadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open topics file: %w", err)
	}
	defer f.Close()

	var topics []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		topics = append(topics, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read topics file: %w", err)
	}
	return topics, nil
}

// Default returns a copy of the built-in topic list
func Default() []string {
	return append([]string(nil), defaultTopics...)
}

var defaultTopics = []string{
	"Best Ice Cream Flavors",
	"Things That Are Underrated",
	"What Helps You Relax",
	"Favorite Breakfast Foods",
	"Most Useless College Majors",
	"Things You'd Bring to a Desert Island",
	"Top Excuses for Being Late",
	"What to Avoid on a First Date",
	"Best Fast Food Chains",
	"Worst Chores",
	"Most Annoying Sounds",
	"Best Ways to Spend a Rainy Day",
	"Essential Road Trip Snacks",
	"Most Important Inventions",
	"Things You Can't Live Without",
	"Best Pizza Toppings",
	"Worst Habits",
	"Favorite Things",
	"Best Types of Vacation",
	"Best Coffee Drinks",
	"Worst Vegetable",
	"Best Dessert Toppings",
	"Most Comforting Foods",
	"Best Breakfast Cereals",
	"Worst Candies",
	"Best Sandwich Fillings",
	"Most Refreshing Drinks",
	"Best Potato Chip Flavors",
	"Worst Holiday Foods",
	"Best Condiments",
	"Most Satisfying Snacks",
	"Best Fruits",
	"Worst Restaurant Experiences",
	"Best Cheeses",
	"Best Superheroes",
	"Foods I Would Never Try",
	"Worst Reality TV Shows",
	"Most Iconic Movie Quotes",
	"Best Animated Movies",
	"Worst Song to Hear on Repeat",
	"Best TV Show Endings",
	"Most Bingeworthy TV Series",
	"Best Video Game Genres",
	"Fictional Villains You Love to Hate",
	"Best Board Games",
	"Most Overrated Movies",
	"The GOAT in Music",
	"Worst Movie Tropes",
	"Best Music Genres",
	"Most Underrated Cartoons",
	"Most Important Virtues",
	"Things That Are Truly Beautiful",
	"Worst Ways to Die",
	"Most Important Life Lessons",
	"Best Ways to Learn",
	"Most Annoying Personality Traits",
	"Best Qualities in a Friend",
	"Worst Things to Say",
	"Most Important Freedoms",
	"Best Forms of Art",
	"Worst Excuses for Bad Behavior",
	"Most Impactful Historical Events",
	"Best Ways to Give Back",
	"Worst Inventions",
	"Scams",
	"Best Things to Yell in a Library",
	"Worst Places to Fall Asleep",
	"Most Embarrassing Moments",
	"Best Comebacks",
	"Worst Pick-Up Lines",
	"Most Annoying Things People Do",
	"Best Animal Noises",
	"Worst Superpowers",
	"Most Likely to Survive an Apocalypse",
	"Best Things to Find in Your Couch",
	"Worst Things to Step On Barefoot",
	"Most Absurd Laws",
	"Best Pranks",
	"Worst Things to Say at a Funeral",
	"Most Creative Ways to Procrastinate",
	"Best Sports to Watch",
	"Worst Hobbies to Pick Up",
	"Fake Jobs",
	"Best Outdoor Activities",
	"Worst Indoor Activities",
	"Best Books",
	"Most Challenging Skills to Learn",
	"Best Ways to Exercise",
	"Worst Things About Social Media",
	"Best Places to Travel",
	"Most Annoying Tech Problems",
	"Best Ways to Spend Money",
	"Worst Ways to Save Money",
	"School Subjects That Should Exist",
	"Best Things to Collect",
	"Most Underrated Kitchen Utensils",
	"Best Smells",
	"Worst Smells",
	"Medical/Health Myths",
	"Best Things to Do on a Long Flight",
	"Worst Fashion Trends",
	"Most Overused Phrases",
	"Best Animals to Have as Pets",
	"Worst Animals to Have as Pets",
	"Most Common Misconceptions",
	"Worst Things",
}
