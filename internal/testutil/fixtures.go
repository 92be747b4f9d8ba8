package testutil

import (
	"github.com/coursechat/coursechat/internal/course"
)

// SampleCourses returns a small fixed corpus of parsed course documents
// covering distinct topics, so nearest-neighbor assertions have clear
// expected winners.
func SampleCourses() []*course.Document {
	return []*course.Document{
		{
			Title:      "Introduction to Deep Learning",
			Link:       "https://example.com/deep-learning",
			Instructor: "Grace Hopper",
			Lessons: []course.Lesson{
				{
					Number:  1,
					Title:   "What Is a Neural Network",
					Link:    "https://example.com/deep-learning/lesson-1",
					Content: "A neural network is a function built from layers of weighted sums. Training adjusts the weights with gradient descent. Backpropagation computes the gradients efficiently.",
				},
				{
					Number:  2,
					Title:   "Convolutional Networks",
					Link:    "https://example.com/deep-learning/lesson-2",
					Content: "Convolutional networks apply small filters across an image. Pooling layers reduce spatial resolution. They dominate computer vision tasks.",
				},
			},
		},
		{
			Title:      "Practical Databases",
			Link:       "https://example.com/databases",
			Instructor: "Edgar Codd",
			Lessons: []course.Lesson{
				{
					Number:  1,
					Title:   "Relational Foundations",
					Link:    "https://example.com/databases/lesson-1",
					Content: "Tables store rows with typed columns. Primary keys identify rows uniquely. Joins combine tables over shared keys.",
				},
				{
					Number:  2,
					Title:   "Indexes and Query Plans",
					Link:    "https://example.com/databases/lesson-2",
					Content: "An index trades write cost for read speed. The planner chooses between sequential scans and index scans. EXPLAIN shows the chosen plan.",
				},
			},
		},
		{
			Title:      "Sailing for Beginners",
			Link:       "https://example.com/sailing",
			Instructor: "Joshua Slocum",
			Lessons: []course.Lesson{
				{
					Number:  1,
					Title:   "Parts of the Boat",
					Link:    "https://example.com/sailing/lesson-1",
					Content: "The mast carries the mainsail. The rudder steers the hull. The keel keeps the boat upright against the wind.",
				},
			},
		},
	}
}
