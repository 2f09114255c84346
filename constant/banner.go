package constant

// Banner is printed above the root command's long help.
const Banner = `     _                                           _
 ___| |_ _ __ ___  __ _ _ __ ___  ___  ___ ___  _   _| |_
/ __| __| '__/ _ \/ _' | '_ ' _ \/ __|/ __/ _ \| | | | __|
\__ \ |_| | |  __/ (_| | | | | | \__ \ (_| (_) | |_| | |_
|___/\__|_|  \___|\__,_|_| |_| |_|___/\___\___/ \__,_|\__|`
