package sqlite3

const schema = `
CREATE TABLE IF NOT EXISTS user_profiles (
	id TEXT PRIMARY KEY,
	full_name TEXT NOT NULL,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	email TEXT NOT NULL,
	phone TEXT NOT NULL DEFAULT '',
	current_address TEXT NOT NULL DEFAULT '',
	previous_addresses TEXT NOT NULL DEFAULT '[]',
	date_of_birth TEXT NOT NULL DEFAULT '',
	family_members TEXT NOT NULL DEFAULT '[]',
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS data_brokers (
	position INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL UNIQUE,
	website TEXT NOT NULL,
	category TEXT NOT NULL,
	removal_url TEXT NOT NULL DEFAULT '',
	removal_method TEXT NOT NULL,
	automation_available BOOLEAN NOT NULL DEFAULT 0,
	removal_instructions TEXT NOT NULL DEFAULT '',
	verification_method TEXT NOT NULL DEFAULT '',
	estimated_time TEXT NOT NULL DEFAULT '',
	success_rate REAL NOT NULL DEFAULT 0,
	recipe_ref TEXT NOT NULL DEFAULT '',
	instruction_ref TEXT NOT NULL DEFAULT '',
	created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS removal_requests (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	user_id TEXT NOT NULL,
	data_broker_id TEXT NOT NULL,
	status TEXT NOT NULL,
	method_used TEXT NOT NULL DEFAULT '',
	submitted_at BIGINT NOT NULL,
	completed_at BIGINT,
	confirmation_details TEXT,
	notes TEXT NOT NULL DEFAULT '',
	retry_count INTEGER NOT NULL DEFAULT 0,
	next_retry_at BIGINT,
	updated_at BIGINT NOT NULL,
	UNIQUE (user_id, data_broker_id)
);

CREATE INDEX IF NOT EXISTS removal_requests_user_idx ON removal_requests(user_id);
`

const userColumns = `id, full_name, first_name, last_name, email, phone, current_address, previous_addresses, date_of_birth, family_members, created_at, updated_at`

const insertUserSQL = `
INSERT INTO user_profiles (` + userColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

const updateUserSQL = `
UPDATE user_profiles SET full_name = $2, first_name = $3, last_name = $4, email = $5, phone = $6,
	current_address = $7, previous_addresses = $8, date_of_birth = $9, family_members = $10, updated_at = $11
WHERE id = $1
`

const selectUserSQL = `SELECT ` + userColumns + ` FROM user_profiles WHERE id = $1`

const selectUsersSQL = `SELECT ` + userColumns + ` FROM user_profiles ORDER BY created_at, id`

const brokerColumns = `id, name, website, category, removal_url, removal_method, automation_available, removal_instructions, verification_method, estimated_time, success_rate, recipe_ref, instruction_ref, created_at`

const insertBrokerSQL = `
INSERT INTO data_brokers (` + brokerColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (name) DO NOTHING
`

const selectBrokersSQL = `SELECT ` + brokerColumns + ` FROM data_brokers ORDER BY position`

const selectBrokerSQL = `SELECT ` + brokerColumns + ` FROM data_brokers WHERE id = $1`

const requestColumns = `id, user_id, data_broker_id, status, method_used, submitted_at, completed_at, confirmation_details, notes, retry_count, next_retry_at, updated_at`

const insertRequestSQL = `
INSERT INTO removal_requests (id, user_id, data_broker_id, status, method_used, submitted_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (user_id, data_broker_id) DO NOTHING
`

const selectRequestByPairSQL = `SELECT ` + requestColumns + ` FROM removal_requests WHERE user_id = $1 AND data_broker_id = $2`

const selectRequestByIDSQL = `SELECT ` + requestColumns + ` FROM removal_requests WHERE id = $1`

const selectRequestsSQL = `SELECT ` + requestColumns + ` FROM removal_requests WHERE user_id = $1 ORDER BY seq`

const updateRequestSQL = `
UPDATE removal_requests SET status = $2, completed_at = $3, confirmation_details = $4, notes = $5,
	retry_count = $6, next_retry_at = $7, updated_at = $8, method_used = $9
WHERE id = $1
`
