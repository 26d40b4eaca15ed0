// Command formtree serves, renders and fills schema-driven forms.
package main

func main() {
	Execute()
}
