// ABOUTME: SQLite database schema for the stash store
// ABOUTME: Creates items, labels, join tables, and declutter tasks with cascades
package sqlite

// SchemaVersion is recorded in PRAGMA user_version
const SchemaVersion = 1

// Schema contains all SQL statements for database initialization.
// Timestamps are TEXT in sqlstore.TimeLayout so they sort lexically.
const Schema = `
CREATE TABLE IF NOT EXISTS items (
    id TEXT PRIMARY KEY,
    content TEXT NOT NULL,
    content_type TEXT NOT NULL DEFAULT 'text',
    url TEXT,
    url_title TEXT,
    url_description TEXT,
    source_channel TEXT,
    source_message_id TEXT,
    embedding BLOB,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    description TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tags (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS item_categories (
    item_id TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
    category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
    confidence REAL,
    PRIMARY KEY (item_id, category_id)
);

CREATE TABLE IF NOT EXISTS item_tags (
    item_id TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
    tag_id TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
    PRIMARY KEY (item_id, tag_id)
);

CREATE TABLE IF NOT EXISTS declutter_tasks (
    id TEXT PRIMARY KEY,
    item_name TEXT NOT NULL,
    image_url TEXT,
    analysis TEXT,
    decision TEXT NOT NULL CHECK (decision IN ('keep', 'consider', 'discard')),
    status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'done', 'dismissed')),
    action_taken TEXT,
    source_channel TEXT,
    source_message_id TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_created ON items(created_at);
CREATE INDEX IF NOT EXISTS idx_items_content_type ON items(content_type);
CREATE INDEX IF NOT EXISTS idx_item_categories_category ON item_categories(category_id);
CREATE INDEX IF NOT EXISTS idx_item_tags_tag ON item_tags(tag_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON declutter_tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_created ON declutter_tasks(created_at);
CREATE INDEX IF NOT EXISTS idx_tasks_updated ON declutter_tasks(updated_at);
`
