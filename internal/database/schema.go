package database

const schema = `
CREATE TABLE IF NOT EXISTS dealers (
	id VARCHAR(50) PRIMARY KEY,
	company_name VARCHAR(200) NOT NULL,
	contact_name VARCHAR(200) NOT NULL DEFAULT '',
	phone VARCHAR(50) NOT NULL DEFAULT '',
	address VARCHAR(300) NOT NULL DEFAULT '',
	city VARCHAR(100) NOT NULL DEFAULT '',
	state VARCHAR(100) NOT NULL DEFAULT '',
	zip VARCHAR(20) NOT NULL DEFAULT '',
	tax_doc_url TEXT NOT NULL DEFAULT '',
	onboarding TEXT NOT NULL DEFAULT '{}',
	agreement_signature_url TEXT NOT NULL DEFAULT '',
	agreement_doc_url TEXT NOT NULL DEFAULT '',
	agreement_signed_at TIMESTAMP,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS users (
	id VARCHAR(50) PRIMARY KEY,
	email VARCHAR(254) NOT NULL UNIQUE,
	password_hash VARCHAR(100) NOT NULL,
	role VARCHAR(20) NOT NULL,
	dealer_id VARCHAR(50) REFERENCES dealers(id),
	is_approved BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_users_dealer_id ON users(dealer_id);

CREATE TABLE IF NOT EXISTS factories (
	id VARCHAR(50) PRIMARY KEY,
	name VARCHAR(150) NOT NULL UNIQUE,
	location VARCHAR(200) NOT NULL DEFAULT '',
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS pool_models (
	id VARCHAR(50) PRIMARY KEY,
	name VARCHAR(150) NOT NULL UNIQUE,
	length_ft NUMERIC(6, 2) NOT NULL DEFAULT 0,
	width_ft NUMERIC(6, 2) NOT NULL DEFAULT 0,
	depth_ft NUMERIC(6, 2) NOT NULL DEFAULT 0,
	base_price NUMERIC(12, 2) NOT NULL DEFAULT 0,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS colors (
	id VARCHAR(50) PRIMARY KEY,
	name VARCHAR(100) NOT NULL UNIQUE,
	hex_code VARCHAR(7) NOT NULL DEFAULT '',
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS orders (
	id VARCHAR(50) PRIMARY KEY,
	dealer_id VARCHAR(50) NOT NULL REFERENCES dealers(id),
	pool_model_id VARCHAR(50) NOT NULL REFERENCES pool_models(id),
	color_id VARCHAR(50) NOT NULL REFERENCES colors(id),
	factory_id VARCHAR(50) REFERENCES factories(id),
	status VARCHAR(40) NOT NULL,
	serial_number VARCHAR(100),
	production_priority INTEGER,
	requested_ship_date DATE,
	scheduled_production_date DATE,
	delivery_address TEXT NOT NULL DEFAULT '',
	payment_proof_url TEXT NOT NULL DEFAULT '',
	shipping_method VARCHAR(50) NOT NULL DEFAULT '',
	quoted_price NUMERIC(12, 2) NOT NULL DEFAULT 0,
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_orders_dealer_id ON orders(dealer_id);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

CREATE TABLE IF NOT EXISTS order_history (
	id VARCHAR(50) PRIMARY KEY,
	order_id VARCHAR(50) NOT NULL REFERENCES orders(id),
	status VARCHAR(40) NOT NULL,
	comment TEXT,
	actor_user_id VARCHAR(50) NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_order_history_order_id ON order_history(order_id, created_at);

CREATE TABLE IF NOT EXISTS order_media (
	id VARCHAR(50) PRIMARY KEY,
	order_id VARCHAR(50) NOT NULL REFERENCES orders(id),
	url TEXT NOT NULL,
	file_name VARCHAR(255) NOT NULL DEFAULT '',
	doc_type VARCHAR(40) NOT NULL,
	visible_to_dealer BOOLEAN NOT NULL DEFAULT FALSE,
	uploaded_by VARCHAR(50) NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_order_media_order_id ON order_media(order_id, doc_type);

CREATE TABLE IF NOT EXISTS notifications (
	id VARCHAR(50) PRIMARY KEY,
	dealer_id VARCHAR(50) NOT NULL REFERENCES dealers(id),
	order_id VARCHAR(50),
	title VARCHAR(200) NOT NULL,
	message TEXT NOT NULL,
	is_read BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notifications_dealer ON notifications(dealer_id, is_read);

CREATE TABLE IF NOT EXISTS pool_stock (
	id VARCHAR(50) PRIMARY KEY,
	factory_id VARCHAR(50) NOT NULL REFERENCES factories(id),
	pool_model_id VARCHAR(50) NOT NULL REFERENCES pool_models(id),
	color_id VARCHAR(50) NOT NULL DEFAULT '',
	status VARCHAR(20) NOT NULL,
	quantity INTEGER NOT NULL DEFAULT 0,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (factory_id, pool_model_id, color_id, status)
);

CREATE TABLE IF NOT EXISTS inventory_items (
	id VARCHAR(50) PRIMARY KEY,
	sku VARCHAR(64) NOT NULL UNIQUE,
	name VARCHAR(200) NOT NULL,
	unit VARCHAR(20) NOT NULL DEFAULT 'each',
	category VARCHAR(50) NOT NULL DEFAULT '',
	min_stock INTEGER NOT NULL DEFAULT 0,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS inventory_stock (
	item_id VARCHAR(50) NOT NULL REFERENCES inventory_items(id),
	factory_id VARCHAR(50) NOT NULL REFERENCES factories(id),
	on_hand INTEGER NOT NULL DEFAULT 0,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (item_id, factory_id)
);

CREATE TABLE IF NOT EXISTS inventory_txns (
	id VARCHAR(50) PRIMARY KEY,
	item_id VARCHAR(50) NOT NULL REFERENCES inventory_items(id),
	factory_id VARCHAR(50) NOT NULL REFERENCES factories(id),
	delta INTEGER NOT NULL,
	balance_after INTEGER NOT NULL,
	reason VARCHAR(40) NOT NULL,
	reference VARCHAR(100) NOT NULL DEFAULT '',
	actor_user_id VARCHAR(50) NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_inventory_txns_item ON inventory_txns(item_id, created_at);

CREATE TABLE IF NOT EXISTS outbox_messages (
	id VARCHAR(50) PRIMARY KEY,
	aggregate_type VARCHAR(50) NOT NULL,
	aggregate_id VARCHAR(50) NOT NULL,
	event_type VARCHAR(50) NOT NULL,
	payload TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	processed_at TIMESTAMP,
	processing_attempts INTEGER NOT NULL DEFAULT 0,
	last_error TEXT,
	status VARCHAR(20) NOT NULL DEFAULT 'pending'
);

CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox_messages(status, created_at);
`
