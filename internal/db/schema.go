package db

// SchemaSQL contains the database schema initialization SQL.
const SchemaSQL = `
    -- ==========================================================================
    -- REVIEW_ITEM TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS review_item SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS resource_id ON review_item TYPE string;
    DEFINE FIELD IF NOT EXISTS reviewer ON review_item TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS summary ON review_item TYPE string;
    DEFINE FIELD IF NOT EXISTS quote ON review_item TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS category ON review_item TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS priority ON review_item TYPE string DEFAULT 'medium';
    DEFINE FIELD IF NOT EXISTS severity ON review_item TYPE string DEFAULT 'minor';
    DEFINE FIELD IF NOT EXISTS suggested_response ON review_item TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS status ON review_item TYPE string DEFAULT 'open';
    DEFINE FIELD IF NOT EXISTS sort_order ON review_item TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS needs_manual_review ON review_item TYPE bool DEFAULT false;
    DEFINE FIELD IF NOT EXISTS created_at ON review_item TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS review_item_resource ON review_item FIELDS resource_id;
    DEFINE INDEX IF NOT EXISTS review_item_status ON review_item FIELDS status;

    -- ==========================================================================
    -- EXTRACT_JOB TABLE
    -- ==========================================================================
    -- Persisted mirror of in-memory job state, updated on every transition so
    -- history survives restarts. Logs are embedded, append-only.
    DEFINE TABLE IF NOT EXISTS extract_job SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS resource_id ON extract_job TYPE string;
    DEFINE FIELD IF NOT EXISTS status ON extract_job TYPE string;
    DEFINE FIELD IF NOT EXISTS current_step ON extract_job TYPE string;
    DEFINE FIELD IF NOT EXISTS progress ON extract_job TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS logs ON extract_job TYPE array<object> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS logs.* ON extract_job TYPE object FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS error ON extract_job TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created_at ON extract_job TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS updated_at ON extract_job TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS extract_job_resource ON extract_job FIELDS resource_id;
    DEFINE INDEX IF NOT EXISTS extract_job_status ON extract_job FIELDS status;

    -- ==========================================================================
    -- AGENT_REQUEST TABLE (async bridge records)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS agent_request SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS resource_id ON agent_request TYPE string;
    DEFINE FIELD IF NOT EXISTS context_tag ON agent_request TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS prompt ON agent_request TYPE string;
    DEFINE FIELD IF NOT EXISTS status ON agent_request TYPE string DEFAULT 'pending';
    DEFINE FIELD IF NOT EXISTS response ON agent_request TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS submitted_at ON agent_request TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS agent_request_status ON agent_request FIELDS status;
`
