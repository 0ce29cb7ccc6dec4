package db

import "testing"

func TestDollarDialect_Rebind(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "no placeholders",
			query: "SELECT 1",
			want:  "SELECT 1",
		},
		{
			name:  "several placeholders",
			query: "UPDATE posts SET title = ?, content = ? WHERE id = ?",
			want:  "UPDATE posts SET title = $1, content = $2 WHERE id = $3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (DollarDialect{}).Rebind(tt.query); got != tt.want {
				t.Errorf("Rebind(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestInsertIgnore(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		want    string
	}{
		{
			name:    "sqlite",
			dialect: QuestionDialect{},
			want:    "INSERT INTO post_likes (post_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		},
		{
			name:    "postgres",
			dialect: DollarDialect{},
			want:    "INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		},
		{
			name:    "mysql",
			dialect: MySQLDialect{},
			want:    "INSERT IGNORE INTO post_likes (post_id, user_id) VALUES (?, ?)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.dialect.InsertIgnore("post_likes", "post_id", "user_id")
			if got != tt.want {
				t.Errorf("InsertIgnore() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlaceholders(t *testing.T) {
	if got := Placeholders(0); got != "" {
		t.Errorf("Placeholders(0) = %q, want empty", got)
	}
	if got := Placeholders(3); got != "?, ?, ?" {
		t.Errorf("Placeholders(3) = %q, want %q", got, "?, ?, ?")
	}
}
