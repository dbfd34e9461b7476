package internal

import (
	"context"
	"fmt"
	"log"

	"wwcp/internal/config"
	"wwcp/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionLog           = "sys_log"
	collectionOperators     = "operators"
	collectionPools         = "pools"
	collectionStations      = "stations"
	collectionEvses         = "evses"
	collectionStatusUpdates = "status_updates"
	collectionRecords       = "charge_detail_records"
	collectionSubscriptions = "subscriptions"
)

type MongoDB struct {
	ctx           context.Context
	clientOptions *options.ClientOptions
	database      string
}

func NewMongoClient(conf *config.Config) (*MongoDB, error) {
	if !conf.Mongo.Enabled {
		return nil, nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	client := &MongoDB{
		ctx:           context.Background(),
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
	}
	return client, nil
}

func (m *MongoDB) connect() (*mongo.Client, error) {
	return mongo.Connect(m.ctx, m.clientOptions)
}

func (m *MongoDB) disconnect(connection *mongo.Client) {
	if err := connection.Disconnect(m.ctx); err != nil {
		log.Println("mongodb disconnect error;", err)
	}
}

func (m *MongoDB) Write(table string, data Data) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)
	collection := connection.Database(m.database).Collection(table)
	_, err = collection.InsertOne(m.ctx, data)
	return err
}

func (m *MongoDB) WriteLogMessage(data Data) error {
	return m.Write(collectionLog, data)
}

func (m *MongoDB) ReadLog() (interface{}, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	var logMessages []FeatureLogMessage
	collection := connection.Database(m.database).Collection(collectionLog)
	opts := options.Find().SetSort(bson.D{{Key: "time", Value: -1}}).SetLimit(1000)
	cursor, err := collection.Find(m.ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	if err = cursor.All(m.ctx, &logMessages); err != nil {
		return nil, err
	}
	return logMessages, nil
}

func (m *MongoDB) GetOperators() ([]models.Operator, error) {
	var operators []models.Operator
	if err := m.findAll(collectionOperators, &operators); err != nil {
		return nil, err
	}
	return operators, nil
}

func (m *MongoDB) GetPools() ([]models.ChargingPool, error) {
	var pools []models.ChargingPool
	if err := m.findAll(collectionPools, &pools); err != nil {
		return nil, err
	}
	return pools, nil
}

func (m *MongoDB) GetStations() ([]models.ChargingStation, error) {
	var stations []models.ChargingStation
	if err := m.findAll(collectionStations, &stations); err != nil {
		return nil, err
	}
	return stations, nil
}

func (m *MongoDB) GetEvses() ([]models.Evse, error) {
	var evses []models.Evse
	if err := m.findAll(collectionEvses, &evses); err != nil {
		return nil, err
	}
	return evses, nil
}

func (m *MongoDB) findAll(table string, result interface{}) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(table)
	cursor, err := collection.Find(m.ctx, bson.D{})
	if err != nil {
		return err
	}
	return cursor.All(m.ctx, result)
}

func (m *MongoDB) GetEvse(id string) (*models.Evse, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	filter := bson.D{{Key: "evse_id", Value: id}}
	collection := connection.Database(m.database).Collection(collectionEvses)
	var evse models.Evse
	if err = collection.FindOne(m.ctx, filter).Decode(&evse); err != nil {
		return nil, err
	}
	return &evse, nil
}

func (m *MongoDB) AddEvse(evse *models.Evse) error {
	existing, _ := m.GetEvse(evse.Id)
	if existing != nil {
		return fmt.Errorf("evse with id %s already exists", evse.Id)
	}
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionEvses)
	_, err = collection.InsertOne(m.ctx, evse)
	return err
}

func (m *MongoDB) UpdateEvse(evse *models.Evse) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	filter := bson.D{{Key: "evse_id", Value: evse.Id}}
	update := bson.M{"$set": evse}
	collection := connection.Database(m.database).Collection(collectionEvses)
	_, err = collection.UpdateOne(m.ctx, filter, update)
	return err
}

// WriteStatusUpdate appends one transition to the audit trail. The trail is
// append-only: updates are never rewritten once stored.
func (m *MongoDB) WriteStatusUpdate(record *models.StatusUpdateRecord) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionStatusUpdates)
	_, err = collection.InsertOne(m.ctx, record)
	return err
}

func (m *MongoDB) ReadStatusUpdates(entityId string, limit int64) ([]models.StatusUpdateRecord, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	filter := bson.D{}
	if entityId != "" {
		filter = bson.D{{Key: "entity_id", Value: entityId}}
	}
	opts := options.Find().SetSort(bson.D{{Key: "new_timestamp", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	collection := connection.Database(m.database).Collection(collectionStatusUpdates)
	cursor, err := collection.Find(m.ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var records []models.StatusUpdateRecord
	if err = cursor.All(m.ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (m *MongoDB) AddChargeDetailRecord(record *models.ChargeDetailRecord) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionRecords)
	_, err = collection.InsertOne(m.ctx, record)
	return err
}

func (m *MongoDB) GetChargeDetailRecords() ([]models.ChargeDetailRecord, error) {
	var records []models.ChargeDetailRecord
	if err := m.findAll(collectionRecords, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (m *MongoDB) GetSubscriptions() ([]models.AlertSubscription, error) {
	var subscriptions []models.AlertSubscription
	if err := m.findAll(collectionSubscriptions, &subscriptions); err != nil {
		return nil, err
	}
	return subscriptions, nil
}

func (m *MongoDB) GetSubscription(id int) (*models.AlertSubscription, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	filter := bson.D{{Key: "user_id", Value: id}}
	collection := connection.Database(m.database).Collection(collectionSubscriptions)
	var subscription models.AlertSubscription
	if err = collection.FindOne(m.ctx, filter).Decode(&subscription); err != nil {
		return nil, err
	}
	return &subscription, nil
}

func (m *MongoDB) AddSubscription(subscription *models.AlertSubscription) error {
	existing, _ := m.GetSubscription(subscription.UserID)
	if existing != nil {
		return fmt.Errorf("user is already subscribed")
	}
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionSubscriptions)
	_, err = collection.InsertOne(m.ctx, subscription)
	return err
}

func (m *MongoDB) DeleteSubscription(subscription *models.AlertSubscription) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	filter := bson.D{{Key: "user_id", Value: subscription.UserID}}
	collection := connection.Database(m.database).Collection(collectionSubscriptions)
	_, err = collection.DeleteOne(m.ctx, filter)
	return err
}
