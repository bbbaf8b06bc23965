package main

import (
	"errors"
	"strconv"

	"github.com/abiosoft/ishell/v2"

	"github.com/CodedInternet/beebot/comms"
)

func switchValue(args []string) (float64, error) {
	if len(args) == 0 {
		return 1, nil
	}
	on, err := strconv.ParseBool(args[0])
	if err != nil {
		return 0, err
	}
	if on {
		return 1, nil
	}
	return 0, nil
}

// newShell builds the local development shell. Driving commands go through
// the conductor so they only work when a simulator is attached.
func newShell(conductor *comms.Conductor) *ishell.Shell {
	shell := ishell.New()
	shell.Println("Beebot development shell")
	shell.ShowPrompt(true)

	shell.AddCmd(&ishell.Cmd{
		Name: "createoperator",
		Help: "createoperator <email> <password>",
		Func: func(c *ishell.Context) {
			// disable the '>>>' for cleaner same line input.
			c.ShowPrompt(false)
			defer c.ShowPrompt(true) // yes, revert when done.

			// get email
			var email string
			if len(c.Args) >= 1 {
				email = c.Args[0]
			} else {
				c.Print("Email: ")
				email = c.ReadLine()
			}

			// get password
			var password string
			if len(c.Args) >= 2 {
				password = c.Args[1]
			} else {
				c.Print("Password: ")
				password = c.ReadPassword()
			}

			operator := &Operator{
				Email: email,
				Name:  email,
				Admin: true,
			}
			if err := operator.SetPassword([]byte(password)); err != nil {
				c.Err(err)
				return
			}
			if err := ENV.DB.Save(operator); err != nil {
				c.Err(err)
				return
			}

			c.Println("Operator created")
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "state",
		Help: "print the state after the last tick",
		Func: func(c *ishell.Context) {
			s := conductor.Latest()
			c.Printf("armed:%v reverse:%v failsafe:%v left:%.2f right:%.2f\n",
				s.Armed, s.Reverse, s.Failsafe, s.Outputs[0], s.Outputs[1])
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "events",
		Help: "events [limit]",
		Func: func(c *ishell.Context) {
			limit := 10
			if len(c.Args) >= 1 {
				limit, _ = strconv.Atoi(c.Args[0])
			}
			entries, err := ENV.Journal.Recent(limit)
			if err != nil {
				c.Err(err)
				return
			}
			for _, e := range entries {
				c.Printf("%s %-9s %s\n", e.Time.Format("15:04:05.000"), e.Kind, e.Detail)
			}
		},
	})

	send := func(c *ishell.Context, cmd comms.Cmd) {
		if err := conductor.ProcessCommand(cmd); err != nil {
			c.Err(err)
		}
	}

	shell.AddCmd(&ishell.Cmd{
		Name: "arm",
		Help: "flip the arm switch on",
		Func: func(c *ishell.Context) {
			send(c, comms.Cmd{Cmd: "arm", Value: 1})
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "disarm",
		Help: "flip the arm switch off",
		Func: func(c *ishell.Context) {
			send(c, comms.Cmd{Cmd: "arm", Value: 0})
		},
	})

	for _, name := range []string{"reverse", "failsafe", "silent"} {
		name := name
		shell.AddCmd(&ishell.Cmd{
			Name: name,
			Help: name + " [true|false]",
			Func: func(c *ishell.Context) {
				v, err := switchValue(c.Args)
				if err != nil {
					c.Err(err)
					return
				}
				send(c, comms.Cmd{Cmd: name, Value: v})
			},
		})
	}

	shell.AddCmd(&ishell.Cmd{
		Name: "stick",
		Help: "stick <throttle 0..1> <steering -1..1>",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 2 {
				c.Err(errors.New("usage: stick <throttle> <steering>"))
				return
			}
			throttle, err := strconv.ParseFloat(c.Args[0], 64)
			if err != nil {
				c.Err(err)
				return
			}
			steering, err := strconv.ParseFloat(c.Args[1], 64)
			if err != nil {
				c.Err(err)
				return
			}
			send(c, comms.Cmd{Cmd: "throttle", Value: throttle})
			send(c, comms.Cmd{Cmd: "steering", Value: steering})
		},
	})

	return shell
}
