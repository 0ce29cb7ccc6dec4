package sqlite

import "github.com/dfryer1193/blogsphere/shared/db"

// migrations is the ordered list of all SQLite schema migrations
var migrations = []db.Migration{
	{
		Version: 1,
		Name:    "create_profiles_table",
		Statements: []string{`
			CREATE TABLE IF NOT EXISTS profiles (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				bio TEXT,
				profile_picture TEXT,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			)`,
		},
	},
	{
		Version: 2,
		Name:    "create_posts_table",
		Statements: []string{`
			CREATE TABLE IF NOT EXISTS posts (
				seq INTEGER PRIMARY KEY AUTOINCREMENT,
				id TEXT NOT NULL UNIQUE,
				title TEXT NOT NULL,
				content TEXT NOT NULL,
				author_id TEXT NOT NULL,
				tags TEXT NOT NULL DEFAULT '[]',
				image TEXT,
				likes INTEGER NOT NULL DEFAULT 0 CHECK (likes >= 0),
				views INTEGER NOT NULL DEFAULT 0 CHECK (views >= 0),
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC, seq DESC)`,
			`CREATE INDEX IF NOT EXISTS idx_posts_author_created_at ON posts(author_id, created_at DESC)`,
		},
	},
	{
		Version: 3,
		Name:    "create_comments_table",
		Statements: []string{`
			CREATE TABLE IF NOT EXISTS comments (
				seq INTEGER PRIMARY KEY AUTOINCREMENT,
				id TEXT NOT NULL UNIQUE,
				post_id TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
				author_id TEXT NOT NULL,
				content TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_comments_post_created_at ON comments(post_id, created_at, seq)`,
		},
	},
	{
		Version: 4,
		Name:    "create_post_likes_table",
		Statements: []string{`
			CREATE TABLE IF NOT EXISTS post_likes (
				post_id TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
				user_id TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL,
				PRIMARY KEY (post_id, user_id)
			)`,
		},
	},
}
