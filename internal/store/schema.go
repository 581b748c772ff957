package store

const Schema = `
CREATE TABLE IF NOT EXISTS albums (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	artist_id INTEGER NOT NULL,
	title TEXT NOT NULL,
	batch_id TEXT NOT NULL UNIQUE,
	batch_upload_status TEXT NOT NULL DEFAULT 'processing',
	batch_error TEXT,
	tracks_uploaded INTEGER NOT NULL DEFAULT 0,
	tracks_processed INTEGER NOT NULL DEFAULT 0,

	-- Derived content metadata
	primary_language TEXT NOT NULL DEFAULT '',
	contains_local_content BOOLEAN NOT NULL DEFAULT 0,
	cultural_theme TEXT NOT NULL DEFAULT '',
	target_regions TEXT NOT NULL DEFAULT '[]',  -- JSON array
	explicit_content BOOLEAN NOT NULL DEFAULT 0,

	upc_code TEXT,
	distribution_status TEXT NOT NULL DEFAULT 'draft',
	total_tracks INTEGER NOT NULL DEFAULT 0,
	total_duration_seconds INTEGER NOT NULL DEFAULT 0,
	average_quality_score REAL NOT NULL DEFAULT 0,

	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_albums_artist_id ON albums(artist_id);

CREATE TABLE IF NOT EXISTS uploads (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	batch_id TEXT NOT NULL,
	artist_id INTEGER NOT NULL,
	album_id INTEGER NOT NULL,
	original_filename TEXT NOT NULL,
	file_path TEXT NOT NULL,
	file_size INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	processing_error TEXT,

	-- Extracted attributes
	duration_seconds INTEGER NOT NULL DEFAULT 0,
	bitrate INTEGER NOT NULL DEFAULT 0,
	sample_rate INTEGER NOT NULL DEFAULT 0,
	channels INTEGER NOT NULL DEFAULT 0,
	format TEXT NOT NULL DEFAULT '',
	quality_score INTEGER NOT NULL DEFAULT 0,
	issues TEXT NOT NULL DEFAULT '[]',  -- JSON array
	detected_title TEXT NOT NULL DEFAULT '',
	detected_artist TEXT NOT NULL DEFAULT '',
	detected_genre TEXT NOT NULL DEFAULT '',
	detected_languages TEXT NOT NULL DEFAULT '[]',  -- JSON array
	explicit_content BOOLEAN NOT NULL DEFAULT 0,
	vocal_percentage INTEGER NOT NULL DEFAULT 0,
	classification_confidence REAL NOT NULL DEFAULT 0,
	has_artwork BOOLEAN NOT NULL DEFAULT 0,
	ready_for_distribution BOOLEAN NOT NULL DEFAULT 0,

	song_id INTEGER,
	processed_at DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,

	FOREIGN KEY (album_id) REFERENCES albums(id)
);

CREATE INDEX IF NOT EXISTS idx_uploads_batch ON uploads(batch_id, artist_id);
CREATE INDEX IF NOT EXISTS idx_uploads_status ON uploads(status);

CREATE TABLE IF NOT EXISTS songs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	album_id INTEGER NOT NULL,
	artist_id INTEGER NOT NULL,
	upload_id INTEGER NOT NULL UNIQUE,
	title TEXT NOT NULL,
	track_number INTEGER NOT NULL,
	duration_seconds INTEGER NOT NULL DEFAULT 0,
	bitrate INTEGER NOT NULL DEFAULT 0,
	sample_rate INTEGER NOT NULL DEFAULT 0,
	channels INTEGER NOT NULL DEFAULT 0,
	format TEXT NOT NULL DEFAULT '',
	quality_score INTEGER NOT NULL DEFAULT 0,
	genre TEXT NOT NULL DEFAULT '',
	primary_language TEXT NOT NULL DEFAULT '',
	languages TEXT NOT NULL DEFAULT '[]',  -- JSON array
	contains_local_content BOOLEAN NOT NULL DEFAULT 0,
	explicit_content BOOLEAN NOT NULL DEFAULT 0,
	vocal_percentage INTEGER NOT NULL DEFAULT 0,
	distribution_territories TEXT NOT NULL DEFAULT '[]',  -- JSON array
	isrc_code TEXT UNIQUE,
	created_at DATETIME NOT NULL,

	FOREIGN KEY (album_id) REFERENCES albums(id)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_songs_album_track ON songs(album_id, track_number);

CREATE TABLE IF NOT EXISTS isrc_sequences (
	country_code TEXT NOT NULL,
	registrant_code TEXT NOT NULL,
	year_code TEXT NOT NULL,
	last_designation INTEGER NOT NULL,
	PRIMARY KEY (country_code, registrant_code, year_code)
);

CREATE TABLE IF NOT EXISTS isrc_codes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	code TEXT NOT NULL UNIQUE,
	country_code TEXT NOT NULL,
	registrant_code TEXT NOT NULL,
	year_code TEXT NOT NULL,
	designation_code INTEGER NOT NULL,
	song_id INTEGER NOT NULL UNIQUE,
	status TEXT NOT NULL DEFAULT 'pending',
	registration_reference TEXT,
	registration_authority TEXT,
	registered_at DATETIME,
	notes TEXT,
	international_registration BOOLEAN NOT NULL DEFAULT 0,
	international_registered_at DATETIME,
	international_territories TEXT NOT NULL DEFAULT '[]',  -- JSON array
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

-- A designation is never handed out twice within its scope
CREATE UNIQUE INDEX IF NOT EXISTS idx_isrc_designation_scope
ON isrc_codes(country_code, registrant_code, year_code, designation_code);

CREATE TABLE IF NOT EXISTS content_reviews (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	album_id INTEGER NOT NULL UNIQUE,
	explicit_content BOOLEAN NOT NULL DEFAULT 0,
	cultural_sensitivity BOOLEAN NOT NULL DEFAULT 0,
	audio_quality_concerns BOOLEAN NOT NULL DEFAULT 0,
	policy_violations TEXT NOT NULL DEFAULT '[]',  -- JSON array
	priority TEXT NOT NULL,
	classification_confidence REAL NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'pending',
	created_at DATETIME NOT NULL,

	FOREIGN KEY (album_id) REFERENCES albums(id)
);

CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	status TEXT NOT NULL,
	payload TEXT NOT NULL DEFAULT '{}',
	dedupe_key TEXT,
	attempts INTEGER NOT NULL DEFAULT 0,
	max_attempts INTEGER NOT NULL,
	run_at DATETIME NOT NULL,
	lease_until DATETIME,
	last_error TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	finished_at DATETIME
);

-- Prevent duplicate active tasks for the same subject
CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_active_dedupe ON tasks(type, dedupe_key)
WHERE status IN ('queued', 'running');

CREATE INDEX IF NOT EXISTS idx_tasks_claim ON tasks(status, run_at);
`
