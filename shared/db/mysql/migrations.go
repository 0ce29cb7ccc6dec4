package mysql

import "github.com/dfryer1193/blogsphere/shared/db"

// MySQL has no CREATE INDEX IF NOT EXISTS, so indexes are declared inline
var migrations = []db.Migration{
	{
		Version: 1,
		Name:    "create_profiles_table",
		Statements: []string{`
			CREATE TABLE IF NOT EXISTS profiles (
				id VARCHAR(128) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				bio TEXT,
				profile_picture TEXT,
				created_at DATETIME(6) NOT NULL,
				updated_at DATETIME(6) NOT NULL
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		},
	},
	{
		Version: 2,
		Name:    "create_posts_table",
		Statements: []string{`
			CREATE TABLE IF NOT EXISTS posts (
				seq BIGINT AUTO_INCREMENT PRIMARY KEY,
				id VARCHAR(36) NOT NULL UNIQUE,
				title TEXT NOT NULL,
				content MEDIUMTEXT NOT NULL,
				author_id VARCHAR(128) NOT NULL,
				tags TEXT NOT NULL,
				image TEXT,
				likes BIGINT UNSIGNED NOT NULL DEFAULT 0,
				views BIGINT UNSIGNED NOT NULL DEFAULT 0,
				created_at DATETIME(6) NOT NULL,
				updated_at DATETIME(6) NOT NULL,
				INDEX idx_posts_created_at (created_at, seq),
				INDEX idx_posts_author_created_at (author_id, created_at)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		},
	},
	{
		Version: 3,
		Name:    "create_comments_table",
		Statements: []string{`
			CREATE TABLE IF NOT EXISTS comments (
				seq BIGINT AUTO_INCREMENT PRIMARY KEY,
				id VARCHAR(36) NOT NULL UNIQUE,
				post_id VARCHAR(36) NOT NULL,
				author_id VARCHAR(128) NOT NULL,
				content TEXT NOT NULL,
				created_at DATETIME(6) NOT NULL,
				INDEX idx_comments_post_created_at (post_id, created_at, seq),
				CONSTRAINT fk_comments_post FOREIGN KEY (post_id) REFERENCES posts(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		},
	},
	{
		Version: 4,
		Name:    "create_post_likes_table",
		Statements: []string{`
			CREATE TABLE IF NOT EXISTS post_likes (
				post_id VARCHAR(36) NOT NULL,
				user_id VARCHAR(128) NOT NULL,
				created_at DATETIME(6) NOT NULL,
				PRIMARY KEY (post_id, user_id),
				CONSTRAINT fk_post_likes_post FOREIGN KEY (post_id) REFERENCES posts(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		},
	},
}
