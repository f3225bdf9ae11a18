package db

// SchemaSQL defines the community record tables. Tables are schemaless
// because records arrive from several scrapers with drifting shapes;
// normalization happens on read.
const SchemaSQL = `
    DEFINE TABLE IF NOT EXISTS resource SCHEMALESS;
    DEFINE FIELD IF NOT EXISTS title ON resource TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS url ON resource TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS topics ON resource TYPE option<array<string>>;
    DEFINE FIELD IF NOT EXISTS tags ON resource TYPE option<array<string>>;
    DEFINE FIELD IF NOT EXISTS created ON resource TYPE datetime DEFAULT time::now();
    DEFINE INDEX IF NOT EXISTS resource_url ON resource FIELDS url;
    DEFINE INDEX IF NOT EXISTS resource_topics ON resource FIELDS topics;

    DEFINE TABLE IF NOT EXISTS question SCHEMALESS;
    DEFINE FIELD IF NOT EXISTS question ON question TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS options ON question TYPE option<array<string>>;
    DEFINE FIELD IF NOT EXISTS created ON question TYPE datetime DEFAULT time::now();
    DEFINE INDEX IF NOT EXISTS question_topic ON question FIELDS topic;

    DEFINE TABLE IF NOT EXISTS project SCHEMALESS;
    DEFINE FIELD IF NOT EXISTS title ON project TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created ON project TYPE datetime DEFAULT time::now();
`
