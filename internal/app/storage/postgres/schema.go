package postgres

// The relationship uniqueness index is the store-level guarantee the ledger
// relies on: a racing lookup-then-create for the same (subject, follower)
// pair fails cleanly instead of producing a second record.
const schema = `
CREATE TABLE IF NOT EXISTS app_entities (
	kind       TEXT        NOT NULL,
	id         TEXT        NOT NULL,
	doc        JSONB       NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (kind, id)
);

CREATE UNIQUE INDEX IF NOT EXISTS app_following_pair
	ON app_entities ((doc->>'subject_kind'), (doc->>'subject_id'), (doc->>'follower_id'))
	WHERE kind = 'following';

CREATE INDEX IF NOT EXISTS app_entities_kind_created
	ON app_entities (kind, created_at);
`
