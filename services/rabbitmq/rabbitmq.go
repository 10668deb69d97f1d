package rabbitmq

import (
	"errors"
	"fmt"
	"proteinrank-go-worker/services/trackLog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/streadway/amqp"
)

//Connection is the connection created
type Connection struct {
	name    string
	domain  string
	Conn    *amqp.Connection
	Channel *amqp.Channel
	Queues  []string
	Err     chan error
	ApiErr  chan error
	// 正在消費 delivery 的 goroutine 數
	consumers *int32
}

var (
	connectionPool = make(map[string]*Connection)
	poolMutex      sync.Mutex
	// 重新連線的間隔
	ReconnectInterval = 60 * time.Second
)

//NewConnection returns the new connection object
func NewConnection(name, domain string, queues []string) *Connection {
	poolMutex.Lock()
	defer poolMutex.Unlock()
	if c, ok := connectionPool[name]; ok {
		return c
	}
	c := &Connection{
		name:   name,
		domain: domain,
		Queues: queues,
		Err:    make(chan error, 1),
		ApiErr: make(chan error, 1),

		consumers: new(int32),
	}
	connectionPool[name] = c
	return c
}

//GetConnection returns the connection which was instantiated
func GetConnection(name string) *Connection {
	poolMutex.Lock()
	defer poolMutex.Unlock()
	return connectionPool[name]
}

func (c *Connection) Connect() error {
	var err error
	c.Conn, err = amqp.Dial(c.domain)
	if err != nil {
		return fmt.Errorf("Error in creating rabbitmq connection with %s : %s", c.domain, err.Error())
	}
	go func() {
		<-c.Conn.NotifyClose(make(chan *amqp.Error)) //Listen to NotifyClose
		notify(c.Err, errors.New("Connection Closed"))
		notify(c.ApiErr, errors.New("Api detect Connection Closed"))
	}()
	c.Channel, err = c.Conn.Channel()
	if err != nil {
		return fmt.Errorf("Channel: %s", err)
	}
	return nil
}

func notify(ch chan error, err error) {
	select {
	case ch <- err:
	default:
	}
}

func (c *Connection) BindQueue() error {
	for _, q := range c.Queues {
		if _, err := c.Channel.QueueDeclare(q, false, false, false, false, nil); err != nil {
			return fmt.Errorf("error in declaring the queue %s", err)
		}
	}
	return nil
}

//Reconnect reconnects the connection
func (c *Connection) Reconnect() error {
	if err := c.Connect(); err != nil {
		return err
	}
	if err := c.BindQueue(); err != nil {
		return err
	}
	return nil
}

func (c *Connection) Consume() (map[string]<-chan amqp.Delivery, error) {
	m := make(map[string]<-chan amqp.Delivery)
	for _, q := range c.Queues {
		deliveries, err := c.Channel.Consume(q, "", true, false, false, false, nil)
		if err != nil {
			return nil, err
		}
		m[q] = deliveries
	}
	return m, nil
}

// HandleConsumedDeliveries 處理 queue 的訊息，連線中斷時重新連線並繼續消費
func (c *Connection) HandleConsumedDeliveries(q string, delivery <-chan amqp.Delivery, fn func(Connection, string, <-chan amqp.Delivery)) {
	trackLog.Info(fmt.Sprintf("[HandleConsumedDeliveries] Queue[%s] delivery received", q), false)
	for {
		go c.run(fn, q, delivery)
		if err := <-c.Err; err != nil {
			for {
				if err := c.Reconnect(); err != nil {
					trackLog.Error(fmt.Sprintf("Queue[%s] reconnect fail, try again: %s", q, err.Error()), true)
					time.Sleep(ReconnectInterval)
					continue
				}

				deliveries, err := c.Consume()
				if err != nil {
					trackLog.Error(fmt.Sprintf("Queue[%s] reconnect fail, try again: %s", q, err.Error()), true)
					time.Sleep(ReconnectInterval)
				} else {
					trackLog.Info(fmt.Sprintf("Queue[%s] reconnect ok", q), true)
					delivery = deliveries[q]
					break
				}
			}
		}
	}
}

func (c *Connection) run(fn func(Connection, string, <-chan amqp.Delivery), q string, delivery <-chan amqp.Delivery) {
	atomic.AddInt32(c.consumers, 1)
	defer atomic.AddInt32(c.consumers, -1)
	fn(*c, q, delivery)
}

// Consumers 回傳目前仍在處理 delivery 的 consumer 數
func (c *Connection) Consumers() int {
	return int(atomic.LoadInt32(c.consumers))
}
